package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"course-booking-platform/internal/config"
	"course-booking-platform/internal/domain/model"
	pg "course-booking-platform/internal/infra/db/postgres"
	"course-booking-platform/internal/infra/web"
)

func main() {
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, true)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, 4)
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer pool.Close()

	planRepo := pg.NewPlanRepo(pool)
	courseRepo := pg.NewCourseRepo(pool)
	userRepo := pg.NewUserRepo(pool)

	// If plans already exist, do nothing.
	plans, err := planRepo.List(ctx, nil)
	if err != nil {
		log.Fatalf("list plans: %v", err)
	}
	if len(plans) > 0 {
		fmt.Printf("%d plans already present. No changes.\n", len(plans))
		return
	}

	seedPlans := []struct {
		Name  string
		Tier  model.Tier
		Days  int
		Price int64
		Roles []model.Role
	}{
		{"Free", model.TierFree, 365, 0, nil},
		{"Nobility", model.TierNobility, 30, 990, []model.Role{"NOBILITY"}},
		{"Royalty", model.TierRoyalty, 30, 2990, []model.Role{"NOBILITY", "ROYALTY"}},
		{"Imperial", model.TierImperial, 30, 9990, []model.Role{"NOBILITY", "ROYALTY", "IMPERIAL"}},
	}
	for _, s := range seedPlans {
		plan, err := model.NewSubscriptionPlan(uuid.NewString(), s.Name, s.Tier, s.Price, s.Days, s.Roles)
		if err != nil {
			log.Fatalf("plan %s: %v", s.Name, err)
		}
		if err := planRepo.Save(ctx, nil, plan); err != nil {
			log.Fatalf("save plan %s: %v", s.Name, err)
		}
		fmt.Printf("seeded plan %s (tier=%s, price=%d)\n", plan.Name, plan.Tier, plan.PriceCents)
	}

	instructor, err := model.NewUser(uuid.NewString(), "instructor@example.com", "Demo Instructor",
		[]model.Role{model.RoleInstructorAdmin})
	if err != nil {
		log.Fatalf("instructor: %v", err)
	}
	student, err := model.NewUser(uuid.NewString(), "student@example.com", "Demo Student",
		[]model.Role{model.RoleStudent})
	if err != nil {
		log.Fatalf("student: %v", err)
	}
	for _, u := range []*model.User{instructor, student} {
		if err := userRepo.Save(ctx, nil, u); err != nil {
			log.Fatalf("save user %s: %v", u.Email, err)
		}
		fmt.Printf("seeded user %s (%s)\n", u.Email, u.Roles)
	}

	course, err := model.NewCourse(uuid.NewString(), "Intro to the Platform", instructor.ID, 4999, "usd")
	if err != nil {
		log.Fatalf("course: %v", err)
	}
	course.Published = true
	if err := courseRepo.Save(ctx, nil, course); err != nil {
		log.Fatalf("save course: %v", err)
	}
	fmt.Printf("seeded course %s (%s)\n", course.Title, course.ID)

	// Tokens for poking the API by hand.
	for _, u := range []*model.User{instructor, student} {
		roles := make([]string, 0, len(u.Roles))
		for _, r := range u.Roles {
			roles = append(roles, string(r))
		}
		token, err := web.IssueToken(cfg.Auth.JWTSecret, u.ID, roles, string(model.TierFree), cfg.Auth.TokenTTL)
		if err != nil {
			log.Fatalf("token for %s: %v", u.Email, err)
		}
		fmt.Printf("token %s:\n  %s\n", u.Email, token)
	}
}
