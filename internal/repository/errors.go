package repository

import "errors"

// ErrNotFound - записи с таким ключом нет; для хранилища это штатный исход
var ErrNotFound = errors.New("запись не найдена")
