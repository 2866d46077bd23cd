package repository

import "context"

// Transactor выполняет fn в одной транзакции хранилища.
// Репозитории, вызванные с переданным ctx, участвуют в этой транзакции.
// Ошибка fn откатывает все изменения.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
