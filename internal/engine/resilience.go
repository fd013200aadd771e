package engine

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ListenResilient: универсальный цикл для "живучей" подписки на канал Redis по шаблону.
// Обрабатывает переподключения и сообщает о смене состояния через onState.
func ListenResilient(
	ctx context.Context,
	rdb *redis.Client,
	logger *zap.Logger,
	pattern string,
	reconnectDelay time.Duration,
	onState func(connected bool), // Callback для флага подключения в Store
	onReconnect func(), // Callback для синхронизации при переподключении
	onMessage func(channel, payload string), // Callback для обработки сообщения
) {
	for {
		pubsub := rdb.PSubscribe(ctx, pattern)

		// Проверка успешности подписки
		if _, err := pubsub.Receive(ctx); err != nil {
			pubsub.Close()
			if ctx.Err() != nil {
				return
			}
			logger.Warn("failed to subscribe", zap.String("pattern", pattern), zap.Error(err))
			onState(false)
			if !sleepCtx(ctx, reconnectDelay) {
				return
			}
			continue
		}

		onState(true)
		// Вызываем синхронизацию при каждом успешном коннекте
		onReconnect()

		ch := pubsub.Channel()

	loop:
		for {
			select {
			case <-ctx.Done():
				pubsub.Close()
				return
			case msg, ok := <-ch:
				if !ok {
					break loop // Канал закрыт, идем на переподключение
				}
				onMessage(msg.Channel, msg.Payload)
			}
		}

		pubsub.Close()
		onState(false)
		logger.Warn("subscription dropped, reconnecting", zap.String("pattern", pattern))
		if !sleepCtx(ctx, reconnectDelay) {
			return
		}
	}
}

// sleepCtx ждет d или отмены; false: контекст отменен.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
