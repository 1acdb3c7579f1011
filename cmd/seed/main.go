package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"survai/internal/config"
	"survai/internal/logger"
	"survai/internal/model"
	"survai/internal/repository"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var seedUsers = []struct{ first, last, dept string }{
	{"Dana", "Whitfield", "Engineering"},
	{"Omar", "Reyes", "Engineering"},
	{"Priya", "Natarajan", "Marketing"},
	{"Lucas", "Berg", "Sales"},
	{"Mei", "Tanaka", "Operations"},
	{"Grace", "Okafor", "Customer Success"},
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	log, err := logger.New(cfg.LogMode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.Mongo.URI))
	if err != nil {
		log.Fatal("connect mongo failed", "error", err)
	}
	defer client.Disconnect(ctx)

	db := client.Database(cfg.Mongo.Database)
	if err := repository.EnsureIndexes(ctx, db); err != nil {
		log.Fatal("ensure indexes failed", "error", err)
	}

	orgs := repository.NewOrganizationRepo(db)
	users := repository.NewUserRepo(db)
	surveys := repository.NewSurveyRepo(db)

	now := time.Now().UTC()
	org := &model.Organization{Name: "TechCorp"}
	if _, err := orgs.Create(ctx, org); err != nil {
		log.Fatal("create organization failed", "error", err)
	}

	creator := &model.User{
		OrganizationID: org.ID,
		FirstName:      "Survey",
		LastName:       "Admin",
		Email:          fmt.Sprintf("admin+%s@techcorp.com", org.ID),
		Role:           model.RoleAdmin,
		Status:         model.UserActive,
	}
	if _, err := users.Create(ctx, creator); err != nil {
		log.Fatal("create admin failed", "error", err)
	}

	for _, u := range seedUsers {
		hired := now.AddDate(-1, 0, 0)
		user := &model.User{
			OrganizationID: org.ID,
			FirstName:      u.first,
			LastName:       u.last,
			Email:          fmt.Sprintf("%s.%s+%s@techcorp.com", strings.ToLower(u.first), strings.ToLower(u.last), org.ID),
			Department:     u.dept,
			Role:           model.RoleRespondent,
			Status:         model.UserActive,
			HireDate:       &hired,
		}
		if _, err := users.Create(ctx, user); err != nil {
			log.Fatal("create user failed", "user", u.first+" "+u.last, "error", err)
		}
	}

	survey := &model.Survey{
		OrganizationID: org.ID,
		CreatedBy:      creator.ID,
		Title:          "Quarterly Employee Engagement",
		Description:    "How are things going on your team this quarter?",
		Status:         model.SurveyPublished,
		Questions: []model.Question{
			{Text: "How satisfied are you with your current role?", Type: model.QuestionScale, Required: true, Position: 1},
			{Text: "What do you enjoy most about working here?", Type: model.QuestionText, Position: 2},
			{Text: "What should we improve?", Type: model.QuestionText, Position: 3},
			{Text: "What is your biggest challenge right now?", Type: model.QuestionText, Position: 4},
			{Text: "Which benefits matter most to you?", Type: model.QuestionPickAny, Position: 5,
				Options: []string{"Remote work", "Learning budget", "Health plan", "Extra vacation"}},
		},
	}
	if _, err := surveys.Create(ctx, survey); err != nil {
		log.Fatal("create survey failed", "error", err)
	}

	log.Info("seed complete", "organizationId", org.ID, "surveyId", survey.ID, "users", len(seedUsers)+1)
}
