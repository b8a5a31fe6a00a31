package postgres

import (
	"github.com/kazi-platform/delivery-access-service/internal/ports"
	"gorm.io/gorm"
)

type Repositories struct {
	Deliveries   ports.DeliveryRepository
	Transactions ports.TransactionRepository
	AuditLog     ports.AuditLogRepository
	Outbox       ports.OutboxRepository
}

func NewRepositories(db *gorm.DB) Repositories {
	return Repositories{
		Deliveries:   &deliveryRepository{db: db},
		Transactions: &transactionRepository{db: db},
		AuditLog:     &auditLogRepository{db: db},
		Outbox:       &outboxRepository{db: db},
	}
}
