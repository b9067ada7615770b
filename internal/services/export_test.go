package services

import "time"

func SetShoppingClock(service *ShoppingService, now func() time.Time) {
	service.now = now
}
