package main

import (
	"log"
	"os"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

func main() {
	dsn := os.Getenv("DB_DSN")
	if dsn == "" {
		dsn = "hotelhub:hotelhub@tcp(localhost:3306)/hotelhub_payments?parseTime=true&multiStatements=true&loc=Local"
	}

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		log.Fatalf("Failed to get DB: %v", err)
	}

	sql := `
	CREATE TABLE IF NOT EXISTS invoices (
	  id BIGINT NOT NULL AUTO_INCREMENT,
	  guest_name VARCHAR(255) NOT NULL,
	  total_amount BIGINT NOT NULL,
	  payment_status VARCHAR(16) NOT NULL DEFAULT 'Pending',
	  created_at DATETIME(3) NOT NULL DEFAULT CURRENT_TIMESTAMP(3),
	  updated_at DATETIME(3) NOT NULL DEFAULT CURRENT_TIMESTAMP(3),
	  PRIMARY KEY (id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;

	CREATE TABLE IF NOT EXISTS payments (
	  id CHAR(36) NOT NULL,
	  invoice_id BIGINT NOT NULL,
	  method VARCHAR(16) NOT NULL,
	  status VARCHAR(16) NOT NULL,
	  amount BIGINT NOT NULL,
	  transaction_id VARCHAR(128) NULL,
	  bank_code VARCHAR(16) NULL,
	  qr_code_url VARCHAR(512) NULL,
	  payment_date DATETIME(3) NULL,
	  expiry_date DATETIME(3) NULL,
	  retry_count INT NOT NULL DEFAULT 0,
	  notes VARCHAR(255) NULL,
	  created_at DATETIME(3) NOT NULL DEFAULT CURRENT_TIMESTAMP(3),
	  updated_at DATETIME(3) NOT NULL DEFAULT CURRENT_TIMESTAMP(3),
	  PRIMARY KEY (id),
	  KEY ix_payments_invoice_id (invoice_id),
	  KEY ix_payments_invoice_status_created (invoice_id, status, created_at),
	  CONSTRAINT fk_payments_invoice FOREIGN KEY (invoice_id) REFERENCES invoices(id) ON DELETE RESTRICT
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;

	CREATE TABLE IF NOT EXISTS payment_logs (
	  id CHAR(36) NOT NULL,
	  payment_id CHAR(36) NOT NULL,
	  action VARCHAR(32) NOT NULL,
	  details JSON NULL,
	  created_at DATETIME(3) NOT NULL DEFAULT CURRENT_TIMESTAMP(3),
	  PRIMARY KEY (id),
	  KEY ix_payment_logs_payment_id (payment_id),
	  CONSTRAINT fk_payment_logs_payment FOREIGN KEY (payment_id) REFERENCES payments(id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;

	CREATE TABLE IF NOT EXISTS payment_refunds (
	  id CHAR(36) NOT NULL,
	  payment_id CHAR(36) NOT NULL,
	  amount BIGINT NOT NULL,
	  reason VARCHAR(255) NULL,
	  status VARCHAR(16) NOT NULL,
	  refund_transaction_id VARCHAR(128) NULL,
	  refund_date DATETIME(3) NULL,
	  processed_by VARCHAR(128) NULL,
	  created_at DATETIME(3) NOT NULL DEFAULT CURRENT_TIMESTAMP(3),
	  updated_at DATETIME(3) NOT NULL DEFAULT CURRENT_TIMESTAMP(3),
	  PRIMARY KEY (id),
	  KEY ix_payment_refunds_payment_id (payment_id),
	  CONSTRAINT fk_payment_refunds_payment FOREIGN KEY (payment_id) REFERENCES payments(id) ON DELETE RESTRICT
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;

	CREATE TABLE IF NOT EXISTS bank_events (
	  id CHAR(36) NOT NULL,
	  transaction_id VARCHAR(128) NOT NULL,
	  payload JSON NULL,
	  received_at DATETIME(3) NOT NULL DEFAULT CURRENT_TIMESTAMP(3),
	  processed_at DATETIME(3) NULL,
	  PRIMARY KEY (id),
	  UNIQUE KEY ux_bank_events_transaction_id (transaction_id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;
	`

	if _, err := sqlDB.Exec(sql); err != nil {
		log.Fatalf("Failed to create tables: %v", err)
	}

	log.Println("Tables created.")
}
