// Command multibot runs the chat bot and offers offline ban management.
//
// Usage:
//
//	multibot run
//	multibot ban 12345 --reason spam
//	multibot banned
package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/alecthomas/kong"
	log "github.com/sirupsen/logrus"

	"github.com/iamwavecut/multibot/internal/config"
	"github.com/iamwavecut/multibot/internal/db/sqlite"
	"github.com/iamwavecut/multibot/internal/i18n"
	"github.com/iamwavecut/multibot/internal/moderation"
)

const cliBannedBy = "cli"

type CLI struct {
	Run    RunCmd    `cmd:"" default:"1" help:"Start the bot."`
	Ban    BanCmd    `cmd:"" help:"Ban a user by numeric id."`
	Unban  UnbanCmd  `cmd:"" help:"Lift a user's ban."`
	Banned BannedCmd `cmd:"" help:"List banned users, newest first."`

	EnvDir string `name:"env-dir" help:"Directory with .env files." default:"." type:"path"`
	Color  bool   `help:"Colorize log output." default:"true" negatable:""`
}

// app is what every subcommand receives after configuration is loaded.
type app struct {
	cfg *config.Config
}

type BanCmd struct {
	UserID int64  `arg:"" name:"user-id" help:"Numeric user id."`
	Reason string `help:"Ban reason."`
}

func (c *BanCmd) Run(ctx context.Context, a *app) error {
	return withBans(ctx, a.cfg, func(bans moderation.BanService) error {
		rec, err := bans.Ban(ctx, c.UserID, cliBannedBy, c.Reason)
		if err != nil {
			return err
		}
		fmt.Printf("banned %s (%d): %s\n", rec.DisplayName, rec.UserID, rec.Reason)
		return nil
	})
}

type UnbanCmd struct {
	UserID int64 `arg:"" name:"user-id" help:"Numeric user id."`
}

func (c *UnbanCmd) Run(ctx context.Context, a *app) error {
	return withBans(ctx, a.cfg, func(bans moderation.BanService) error {
		if err := bans.Unban(ctx, c.UserID); err != nil {
			return err
		}
		fmt.Printf("unbanned %d\n", c.UserID)
		return nil
	})
}

type BannedCmd struct{}

func (c *BannedCmd) Run(ctx context.Context, a *app) error {
	return withBans(ctx, a.cfg, func(bans moderation.BanService) error {
		list, err := bans.ListBanned(ctx)
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "USER ID\tNAME\tREASON\tBANNED BY\tDATE")
		for _, b := range list {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
				strconv.FormatInt(b.UserID, 10), b.DisplayName, b.Reason, b.BannedBy,
				b.CreatedAt.Format("2006-01-02 15:04:05"))
		}
		return w.Flush()
	})
}

func withBans(ctx context.Context, cfg *config.Config, f func(moderation.BanService) error) error {
	client, err := sqlite.Open(ctx, cfg.DBPath())
	if err != nil {
		return err
	}
	defer func() {
		if err := client.Close(); err != nil {
			log.WithError(err).Warn("cant close db")
		}
	}()
	return f(moderation.NewBanService(client, nil))
}

func main() {
	cli := CLI{}
	kctx := kong.Parse(&cli,
		kong.Name("multibot"),
		kong.Description("Chat bot with a ban, cooldown and flood gate in front of every handler."),
		kong.UsageOnError(),
	)

	if err := config.LoadEnvFiles(cli.EnvDir); err != nil {
		kctx.FatalIfErrorf(err)
	}
	ctx := context.Background()
	cfg, err := config.Load(ctx, nil)
	kctx.FatalIfErrorf(err)

	config.SetupLogging(cfg.LogLevel, os.Stdout, cli.Color)
	i18n.SetDefaultLanguage(cfg.DefaultLanguage)

	kctx.BindTo(ctx, (*context.Context)(nil))
	kctx.FatalIfErrorf(kctx.Run(&app{cfg: cfg}))
}
