package main

import (
	"context"
	"log"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/aims-campus/aims-api/internal/models"
	"github.com/aims-campus/aims-api/internal/repository"
	"github.com/aims-campus/aims-api/pkg/config"
	"github.com/aims-campus/aims-api/pkg/database"
)

// Seeds a demo campus: one user per role, a small CSE catalogue and the
// advisor assigned to the student. Safe to run once against an empty
// database; reruns fail on the unique constraints.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		log.Fatalf("failed to connect to postgres: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	if err := database.EnsureSchema(ctx, db); err != nil {
		log.Fatalf("failed to ensure schema: %v", err)
	}

	users := repository.NewUserRepository(db)
	courses := repository.NewCourseRepository(db)
	advisors := repository.NewAdvisorRepository(db)

	dept := "CSE"
	seedUsers := []struct {
		user     *models.User
		password string
	}{
		{&models.User{Code: "BT22CS001", Email: "student@campus.edu", FullName: "Demo Student", Role: models.RoleStudent, Department: &dept}, "student123"},
		{&models.User{Code: "EMP123", Email: "instructor@campus.edu", FullName: "Demo Instructor", Role: models.RoleInstructor, Department: &dept}, "instructor123"},
		{&models.User{Code: "EMP987", Email: "advisor@campus.edu", FullName: "Demo Advisor", Role: models.RoleAdvisor, Department: &dept}, "advisor123"},
		{&models.User{Code: "ADM001", Email: "admin@campus.edu", FullName: "Demo Admin", Role: models.RoleAdmin, Department: nil}, "admin123"},
	}

	byRole := make(map[models.UserRole]*models.User)
	for _, s := range seedUsers {
		hash, err := bcrypt.GenerateFromPassword([]byte(s.password), bcrypt.DefaultCost)
		if err != nil {
			log.Fatalf("failed to hash password: %v", err)
		}
		s.user.PasswordHash = string(hash)
		if err := users.Create(ctx, s.user); err != nil {
			log.Fatalf("failed to create user %s: %v", s.user.Code, err)
		}
		byRole[s.user.Role] = s.user
	}

	instructorID := byRole[models.RoleInstructor].ID
	seedCourses := []*models.Course{
		{Code: "CS301", Title: "Algorithms", Department: dept, InstructorID: instructorID, Credits: 4, Session: "2025-26 Sem II"},
		{Code: "CS305", Title: "Database Systems", Department: dept, InstructorID: instructorID, Credits: 4, Session: "2025-26 Sem II"},
		{Code: "CS340", Title: "Networks", Department: dept, InstructorID: instructorID, Credits: 3, Session: "2025-26 Sem II"},
	}
	for _, course := range seedCourses {
		if err := courses.Create(ctx, course); err != nil {
			log.Fatalf("failed to create course %s: %v", course.Code, err)
		}
	}

	assignment := &models.AdvisorAssignment{
		StudentID: byRole[models.RoleStudent].ID,
		AdvisorID: byRole[models.RoleAdvisor].ID,
	}
	if err := advisors.Create(ctx, assignment); err != nil {
		log.Fatalf("failed to assign advisor: %v", err)
	}

	log.Println("seed completed")
}
