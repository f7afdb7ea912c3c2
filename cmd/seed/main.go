package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"fixhub/internal/database"
	"fixhub/internal/domain"
	"fixhub/internal/repository"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

func main() {
	_ = godotenv.Load()

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		dsn = "fixhub.db"
	}

	db, err := database.Connect(dsn)
	if err != nil {
		log.Fatal("DB connection failed:", err)
	}

	log.Println("Running AutoMigrate...")
	if err := repository.AutoMigrate(db); err != nil {
		log.Fatal("AutoMigrate failed:", err)
	}

	// Cleanup old data (in safe order to avoid foreign key errors)
	log.Println("Cleaning old data...")
	db.Exec("DELETE FROM notifications")
	db.Exec("DELETE FROM work_proofs")
	db.Exec("DELETE FROM timeline_entries")
	db.Exec("DELETE FROM extension_requests")
	db.Exec("DELETE FROM bookings")
	db.Exec("DELETE FROM weekly_slots")
	db.Exec("DELETE FROM issues")
	db.Exec("DELETE FROM users")

	ctx := context.Background()
	users := repository.NewUserRepository(db)
	slots := repository.NewSlotRepository(db)
	issues := repository.NewIssueRepository(db)
	timeline := repository.NewTimelineRepository(db)

	log.Println("Creating users...")

	admin := mustUser(ctx, users, "admin@fixhub.kz", "admin123", domain.RoleAdmin, "Администратор", "")
	log.Printf("Admin created: %s / admin123", admin.Email)

	staff := mustUser(ctx, users, "dispatch@fixhub.kz", "staff123", domain.RoleStaff, "Диспетчер", "")
	log.Printf("Staff created: %s / staff123", staff.Email)

	tenants := make([]*domain.User, 0, 3)
	for i, email := range []string{"asel@mail.kz", "bekzat@gmail.com", "dina@yandex.kz"} {
		t := mustUser(ctx, users, email, "tenant123", domain.RoleTenant, fmt.Sprintf("Жилец %d", i+1), "")
		t.Unit = fmt.Sprintf("Блок А, кв. %d", 10+i)
		_ = users.Update(ctx, t)
		tenants = append(tenants, t)
	}

	trades := []string{"plumbing", "electrical", "hvac"}
	providers := make([]*domain.User, 0, 3)
	for i, email := range []string{"aidar@fixhub.kz", "gulnaz@fixhub.kz", "yerlan@fixhub.kz"} {
		p := mustUser(ctx, users, email, "provider123", domain.RoleProvider, fmt.Sprintf("Мастер %d", i+1), trades[i])
		providers = append(providers, p)
	}

	log.Println("Creating weekly slots...")
	for _, p := range providers {
		// Mon-Fri: morning and afternoon windows
		for day := 1; day <= 5; day++ {
			for _, w := range [][2]int{{9 * 60, 12 * 60}, {13 * 60, 17 * 60}} {
				s := &domain.WeeklySlot{
					ProviderID: p.ID,
					DayOfWeek:  day,
					StartMin:   w[0],
					EndMin:     w[1],
					IsActive:   true,
				}
				if err := slots.Create(ctx, s); err != nil {
					log.Fatal("slot create failed:", err)
				}
			}
		}
	}

	log.Println("Creating issues...")
	titles := []string{
		"Протекает кран на кухне",
		"Не работает розетка в спальне",
		"Кондиционер не охлаждает",
	}
	for i, t := range tenants {
		issue := &domain.Issue{
			PublicCode: uuid.NewString(),
			TenantID:   t.ID,
			Title:      titles[i],
			Category:   trades[i],
			Priority:   domain.PriorityNormal,
			Status:     domain.IssueOpen,
		}
		if err := issues.Create(ctx, issue); err != nil {
			log.Fatal("issue create failed:", err)
		}
		if err := timeline.Append(ctx, &domain.TimelineEntry{
			IssueID:     issue.ID,
			PerformedBy: t.ID,
			Action:      domain.ActionCreated,
		}); err != nil {
			log.Fatal("timeline append failed:", err)
		}
	}

	log.Println("Seed completed")
}

func mustUser(ctx context.Context, users *repository.UserRepository, email, password string, role domain.UserRole, name, trade string) *domain.User {
	hash, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	u := &domain.User{
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
		Name:         name,
		Trade:        trade,
		IsActive:     true,
	}
	if err := users.Create(ctx, u); err != nil {
		log.Fatal("user create failed:", err)
	}
	return u
}
