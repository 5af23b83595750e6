package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/angelmondragon/memberclub-backend/internal/members"
	"github.com/angelmondragon/memberclub-backend/internal/tiers"
	"github.com/angelmondragon/memberclub-backend/pkg/auth"
	"github.com/angelmondragon/memberclub-backend/pkg/config"
	"github.com/angelmondragon/memberclub-backend/pkg/db"
	"github.com/angelmondragon/memberclub-backend/pkg/enums"
	"github.com/angelmondragon/memberclub-backend/pkg/logger"
	"github.com/angelmondragon/memberclub-backend/pkg/migrate"
	"github.com/angelmondragon/memberclub-backend/pkg/security"
)

const tempPasswordLength = 16

type output struct {
	Member       *members.MemberDTO `json:"member"`
	TempPassword string             `json:"temp_password,omitempty"`
	AccessToken  string             `json:"access_token,omitempty"`
}

func main() {
	logg := logger.New(logger.Options{ServiceName: "create-member"})
	_ = godotenv.Load()

	email := flag.String("email", "", "member email (required)")
	name := flag.String("name", "", "display name (required)")
	password := flag.String("password", "", "initial password; generated when empty")
	role := flag.String("role", string(enums.MemberRoleUser), "member role: user|admin")
	tier := flag.String("tier", "", "membership tier name (optional)")
	issueToken := flag.Bool("issue-token", false, "print an access token for the new member")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fail("load config", err)
	}
	logg = logger.New(logger.Options{
		ServiceName: "create-member",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Format:      cfg.App.LogFormat,
		Output:      os.Stderr,
	})

	parsedRole, err := enums.ParseMemberRole(*role)
	if err != nil {
		fail("parse role", err)
	}

	out := output{}
	if *password == "" {
		generated, err := security.GenerateTempPassword(tempPasswordLength)
		if err != nil {
			fail("generate password", err)
		}
		*password = generated
		out.TempPassword = generated
	}

	ctx := logg.WithFields(context.Background(), map[string]any{"env": cfg.App.Env, "email": *email})
	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		fail("connect database", err)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(ctx, "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		fail("run dev migrations", err)
	}

	svc, err := members.NewService(members.NewRepository(dbClient.DB()), tiers.NewRepository(dbClient.DB()), cfg.Password)
	if err != nil {
		fail("build member service", err)
	}

	member, err := svc.Create(ctx, members.CreateInput{
		Email:       *email,
		DisplayName: *name,
		Password:    *password,
		Role:        parsedRole,
		TierName:    *tier,
	})
	if err != nil {
		fail("create member", err)
	}
	out.Member = member
	logg.Info(logg.WithField(ctx, "member_id", member.ID.String()), "member created")

	if *issueToken {
		token, err := auth.MintAccessToken(cfg.JWT, time.Now(), auth.AccessTokenPayload{
			MemberID: member.ID,
			Role:     member.Role,
			TierID:   member.TierID,
		})
		if err != nil {
			fail("mint access token", err)
		}
		out.AccessToken = token
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		fail("write output", err)
	}
}

func fail(step string, err error) {
	fmt.Fprintf(os.Stderr, "create-member: %s: %v\n", step, err)
	os.Exit(1)
}
