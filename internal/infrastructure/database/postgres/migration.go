// internal/infrastructure/database/postgres/migration.go
package postgres

import (
	"fmt"
	"log"

	"github.com/your-org/flowershop-backend/internal/domain/audit"
	"github.com/your-org/flowershop-backend/internal/domain/cart"
	"github.com/your-org/flowershop-backend/internal/domain/catalog"
	"github.com/your-org/flowershop-backend/internal/domain/order"
	"github.com/your-org/flowershop-backend/internal/domain/user"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Migration handles database migrations
type Migration struct {
	db *gorm.DB
}

// NewMigration creates a new migration instance
func NewMigration(db *gorm.DB) *Migration {
	return &Migration{
		db: db,
	}
}

// RunAutoMigrations runs GORM auto-migrations for all models
func (m *Migration) RunAutoMigrations() error {
	log.Println("🔄 Running database auto-migrations...")

	// Models in dependency order
	models := []interface{}{
		// User domain
		&user.User{},

		// Catalog domain
		&catalog.Category{},
		&catalog.Bouquet{},
		&catalog.Review{},

		// Cart domain
		&cart.Cart{},
		&cart.CartItem{},

		// Order domain
		&order.Order{},
		&order.OrderItem{},

		// Audit domain
		&audit.Log{},
	}

	for _, model := range models {
		log.Printf("Migrating model: %T", model)
		if err := m.db.AutoMigrate(model); err != nil {
			return fmt.Errorf("failed to migrate model %T: %w", model, err)
		}
	}

	log.Println("✅ Database auto-migrations completed successfully")
	return nil
}

// CreateIndexes creates additional indexes for better performance
func (m *Migration) CreateIndexes() error {
	log.Println("🔄 Creating additional database indexes...")

	indexes := []string{
		// User indexes
		"CREATE INDEX IF NOT EXISTS idx_users_email_active ON users(email, is_active)",
		"CREATE INDEX IF NOT EXISTS idx_users_created_at ON users(created_at DESC)",

		// Bouquet indexes
		"CREATE INDEX IF NOT EXISTS idx_bouquets_category_stock ON bouquets(category_id, in_stock)",
		"CREATE INDEX IF NOT EXISTS idx_bouquets_price ON bouquets(price)",
		"CREATE INDEX IF NOT EXISTS idx_bouquets_created_at ON bouquets(created_at DESC)",

		// Category indexes
		"CREATE INDEX IF NOT EXISTS idx_categories_active ON categories(is_active)",

		// Review indexes
		"CREATE INDEX IF NOT EXISTS idx_reviews_bouquet ON reviews(bouquet_id)",
		"CREATE INDEX IF NOT EXISTS idx_reviews_rating ON reviews(rating)",

		// Cart indexes
		"CREATE INDEX IF NOT EXISTS idx_cart_items_cart ON cart_items(cart_id)",

		// Order indexes
		"CREATE INDEX IF NOT EXISTS idx_orders_user_status ON orders(user_id, status)",
		"CREATE INDEX IF NOT EXISTS idx_orders_status_created ON orders(status, created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_orders_created_at ON orders(created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_orders_delivery_date ON orders(delivery_date)",

		// Order items indexes
		"CREATE INDEX IF NOT EXISTS idx_order_items_order ON order_items(order_id)",
		"CREATE INDEX IF NOT EXISTS idx_order_items_bouquet ON order_items(bouquet_id)",

		// Audit log indexes
		"CREATE INDEX IF NOT EXISTS idx_audit_logs_table_record ON audit_logs(table_name, record_id)",
		"CREATE INDEX IF NOT EXISTS idx_audit_logs_changed_at ON audit_logs(changed_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_audit_logs_changed_by ON audit_logs(changed_by)",
	}

	successCount := 0
	failCount := 0

	for _, indexSQL := range indexes {
		if err := m.db.Exec(indexSQL).Error; err != nil {
			log.Printf("⚠️ Failed to create index: %v", err)
			failCount++
		} else {
			successCount++
		}
	}

	log.Printf("✅ Created %d indexes successfully (%d failed)", successCount, failCount)
	return nil
}

// SeedInitialData inserts initial data into the database
func (m *Migration) SeedInitialData() error {
	log.Println("🌱 Seeding initial data...")

	if err := m.seedCategories(); err != nil {
		return fmt.Errorf("failed to seed categories: %w", err)
	}

	if err := m.seedAdminUser(); err != nil {
		return fmt.Errorf("failed to seed admin user: %w", err)
	}

	if err := m.seedBouquets(); err != nil {
		return fmt.Errorf("failed to seed bouquets: %w", err)
	}

	log.Println("✅ Initial data seeded successfully")
	return nil
}

// seedCategories creates default bouquet categories
func (m *Migration) seedCategories() error {
	log.Println("🏷️ Seeding categories...")

	categories := []catalog.Category{
		{
			Name:        "Roses",
			Description: "Classic rose bouquets for every occasion",
			IsActive:    true,
		},
		{
			Name:        "Wedding",
			Description: "Bridal bouquets and wedding arrangements",
			IsActive:    true,
		},
		{
			Name:        "Birthday",
			Description: "Bright and cheerful birthday arrangements",
			IsActive:    true,
		},
		{
			Name:        "Seasonal",
			Description: "Arrangements built around flowers in season",
			IsActive:    true,
		},
		{
			Name:        "Sympathy",
			Description: "Thoughtful arrangements for difficult moments",
			IsActive:    true,
		},
	}

	for _, category := range categories {
		var existing catalog.Category
		result := m.db.Where("name = ?", category.Name).First(&existing)
		if result.Error != nil {
			if err := m.db.Create(&category).Error; err != nil {
				return err
			}
			log.Printf("✅ Created category: %s", category.Name)
		} else {
			log.Printf("⏭️ Category already exists: %s", category.Name)
		}
	}

	return nil
}

func (m *Migration) seedAdminUser() error {
	log.Println("👤 Seeding admin user...")

	var existing user.User
	result := m.db.Where("email = ?", "admin@example.com").First(&existing)
	if result.Error != nil {
		hashedPassword, err := bcrypt.GenerateFromPassword([]byte("Admin#2024!"), 10)
		if err != nil {
			return fmt.Errorf("failed to hash password: %w", err)
		}

		adminUser := user.User{
			Email:     "admin@example.com",
			Password:  string(hashedPassword),
			FirstName: "Admin",
			LastName:  "User",
			IsActive:  true,
			IsAdmin:   true,
		}

		if err := m.db.Create(&adminUser).Error; err != nil {
			return fmt.Errorf("failed to create admin user: %w", err)
		}

		log.Println("✅ Created admin user: admin@example.com")
	} else {
		log.Printf("⏭️ Admin user already exists with ID: %d", existing.ID)
	}

	return nil
}

// seedBouquets creates sample bouquets for development
func (m *Migration) seedBouquets() error {
	log.Println("💐 Seeding bouquets...")

	var bouquetCount int64
	m.db.Model(&catalog.Bouquet{}).Count(&bouquetCount)
	if bouquetCount > 0 {
		log.Println("⏭️ Bouquets already exist")
		return nil
	}

	var roses catalog.Category
	if err := m.db.Where("name = ?", "Roses").First(&roses).Error; err != nil {
		log.Println("⚠️ Roses category not found, skipping bouquet seed")
		return nil
	}

	var seasonal catalog.Category
	if err := m.db.Where("name = ?", "Seasonal").First(&seasonal).Error; err != nil {
		seasonal = roses
	}

	bouquets := []catalog.Bouquet{
		{
			Name:          "Classic Dozen Red Roses",
			Description:   "Twelve long-stemmed red roses with greenery, wrapped in kraft paper.",
			Price:         5999,
			CategoryID:    roses.ID,
			InStock:       true,
			StockQuantity: 25,
		},
		{
			Name:          "Blush Garden Bouquet",
			Description:   "Pink roses, ranunculus, and eucalyptus in soft pastel tones.",
			Price:         7499,
			CategoryID:    roses.ID,
			InStock:       true,
			StockQuantity: 12,
		},
		{
			Name:          "Sunny Day Mix",
			Description:   "Sunflowers, daisies, and solidago for a bright pick-me-up.",
			Price:         4599,
			CategoryID:    seasonal.ID,
			InStock:       true,
			StockQuantity: 18,
		},
	}

	for _, bouquet := range bouquets {
		if err := m.db.Create(&bouquet).Error; err != nil {
			log.Printf("⚠️ Failed to create bouquet %s: %v", bouquet.Name, err)
		} else {
			log.Printf("✅ Created bouquet: %s", bouquet.Name)
		}
	}

	return nil
}

// DropAllTables drops all tables (use with extreme caution)
func (m *Migration) DropAllTables() error {
	log.Println("⚠️ WARNING: Dropping all database tables...")

	// Reverse dependency order
	tables := []string{
		"audit_logs",
		"order_items",
		"orders",
		"cart_items",
		"carts",
		"reviews",
		"bouquets",
		"categories",
		"users",
	}

	for _, table := range tables {
		if err := m.db.Exec(fmt.Sprintf("DROP TABLE IF EXISTS %s CASCADE", table)).Error; err != nil {
			log.Printf("⚠️ Failed to drop table %s: %v", table, err)
		} else {
			log.Printf("🗑️ Dropped table: %s", table)
		}
	}

	log.Println("✅ All tables dropped successfully")
	return nil
}

// GetTableInfo returns information about database tables
func (m *Migration) GetTableInfo() error {
	var tables []string

	if err := m.db.Raw("SELECT tablename FROM pg_tables WHERE schemaname = 'public' ORDER BY tablename").Scan(&tables).Error; err != nil {
		return err
	}

	log.Println("📊 Database Tables Information:")
	log.Println("================================")

	totalRecords := int64(0)
	for _, table := range tables {
		var count int64
		m.db.Table(table).Count(&count)
		totalRecords += count

		status := "✅"
		if count == 0 {
			status = "📭"
		}

		log.Printf("%s %-25s | %d records", status, table, count)
	}

	log.Println("================================")
	log.Printf("📈 Total records across all tables: %d", totalRecords)
	log.Printf("🗂️ Total tables: %d", len(tables))

	return nil
}
