// Command lmsctl signs in to the LMS API and drives certificate batches from the shell.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"

	"github.com/yigit/lms/internal/config"
	"github.com/yigit/lms/internal/pkg/authclient"
	"github.com/yigit/lms/internal/pkg/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newApp(os.Stdout).RunContext(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "lmsctl:", err)
		os.Exit(1)
	}
}

func defaultCredentialsPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "lms", "credentials.json")
}

func newApp(out io.Writer) *cli.App {
	return &cli.App{
		Name:   "lmsctl",
		Usage:  "sign in and manage certificate batches",
		Writer: out,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "server", Value: config.GetEnv("LMS_SERVER", "http://localhost:8080"), Usage: "API base URL"},
			&cli.StringFlag{Name: "credentials", Value: defaultCredentialsPath(), Usage: "where the session is stored"},
			&cli.IntFlag{Name: "retries", Value: config.GetEnvAsInt("LMS_RETRIES", 2), Usage: "retries for transport failures"},
			&cli.BoolFlag{Name: "verbose", Aliases: []string{"v"}},
		},
		Commands: []*cli.Command{
			{
				Name:  "login",
				Usage: "sign in and store the session",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "email", Required: true},
					&cli.StringFlag{Name: "password", EnvVars: []string{"LMS_PASSWORD"}, Required: true},
				},
				Action: func(c *cli.Context) error {
					session, _, err := openSession(c)
					if err != nil {
						return err
					}
					res, err := session.Login(c.Context, c.String("email"), c.String("password"))
					if err != nil {
						return err
					}
					return printJSON(c.App.Writer, res.User)
				},
			},
			{
				Name:  "logout",
				Usage: "revoke and forget the stored session",
				Action: func(c *cli.Context) error {
					session, _, err := openSession(c)
					if err != nil {
						return err
					}
					return session.Logout(c.Context)
				},
			},
			{
				Name:  "whoami",
				Usage: "print the signed in user",
				Action: func(c *cli.Context) error {
					session, _, err := openSession(c)
					if err != nil {
						return err
					}
					user, err := session.CurrentUser(c.Context)
					if err != nil {
						return err
					}
					if user == nil {
						return authclient.ErrUnauthenticated
					}
					return printJSON(c.App.Writer, user)
				},
			},
			batchCommand(),
		},
	}
}

func batchCommand() *cli.Command {
	return &cli.Command{
		Name:  "batch",
		Usage: "issue certificates in bulk (admin)",
		Subcommands: []*cli.Command{
			{
				Name:  "start",
				Usage: "issue certificates for a course's enrollments",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "course", Required: true},
					&cli.BoolFlag{Name: "only-eligible", Value: true},
					&cli.BoolFlag{Name: "cancellable", Value: true},
					&cli.IntFlag{Name: "concurrency"},
					&cli.BoolFlag{Name: "wait", Usage: "poll until the job finishes"},
					&cli.DurationFlag{Name: "interval", Value: time.Second},
				},
				Action: func(c *cli.Context) error {
					session, backend, err := openSession(c)
					if err != nil {
						return err
					}
					req := authclient.BatchRequest{
						CourseID:     c.String("course"),
						OnlyEligible: c.Bool("only-eligible"),
						Cancellable:  c.Bool("cancellable"),
						Concurrency:  c.Int("concurrency"),
					}
					var accepted *authclient.BatchAccepted
					err = session.Call(c.Context, func(ctx context.Context, token string) error {
						accepted, err = backend.StartBatch(ctx, token, req)
						return err
					})
					if err != nil {
						return err
					}
					if !c.Bool("wait") {
						return printJSON(c.App.Writer, accepted)
					}
					fmt.Fprintf(c.App.Writer, "job %s started with %d items\n", accepted.JobID, accepted.Total)
					status, err := pollBatch(c.Context, session, backend, accepted.JobID, c.Duration("interval"), func(s *authclient.BatchStatus) {
						fmt.Fprintf(c.App.Writer, "%3d%% %d/%d (failed %d)\n", s.Progress.Percent, s.Progress.Done, s.Progress.Total, s.Progress.Failed)
					})
					if err != nil {
						return err
					}
					return printJSON(c.App.Writer, status)
				},
			},
			{
				Name:      "status",
				Usage:     "show a batch job",
				ArgsUsage: "JOB_ID",
				Action: func(c *cli.Context) error {
					return withJob(c, func(ctx context.Context, backend *authclient.RESTBackend, token, jobID string) (*authclient.BatchStatus, error) {
						return backend.BatchStatus(ctx, token, jobID)
					})
				},
			},
			{
				Name:      "cancel",
				Usage:     "stop a cancellable batch job",
				ArgsUsage: "JOB_ID",
				Action: func(c *cli.Context) error {
					return withJob(c, func(ctx context.Context, backend *authclient.RESTBackend, token, jobID string) (*authclient.BatchStatus, error) {
						return backend.CancelBatch(ctx, token, jobID)
					})
				},
			},
		},
	}
}

func openSession(c *cli.Context) (*authclient.Session, *authclient.RESTBackend, error) {
	lgr := zerolog.Nop()
	if c.Bool("verbose") {
		lgr = logger.Configure(logger.Config{Level: logger.DebugLevel, Pretty: true, Output: os.Stderr})
	}

	backend := authclient.NewRESTBackend(c.String("server"), authclient.WithRetries(c.Int("retries")))
	session := authclient.NewSession(backend,
		authclient.WithStore(authclient.NewFileStore(c.String("credentials"))),
		authclient.WithLogger(lgr),
	)
	if err := session.Restore(); err != nil {
		return nil, nil, fmt.Errorf("restore session: %w", err)
	}
	return session, backend, nil
}

func withJob(c *cli.Context, fn func(ctx context.Context, backend *authclient.RESTBackend, token, jobID string) (*authclient.BatchStatus, error)) error {
	jobID := c.Args().First()
	if jobID == "" {
		return errors.New("missing JOB_ID")
	}
	session, backend, err := openSession(c)
	if err != nil {
		return err
	}
	var status *authclient.BatchStatus
	err = session.Call(c.Context, func(ctx context.Context, token string) error {
		status, err = fn(ctx, backend, token, jobID)
		return err
	})
	if err != nil {
		return err
	}
	return printJSON(c.App.Writer, status)
}

func pollBatch(ctx context.Context, session *authclient.Session, backend *authclient.RESTBackend, jobID string, interval time.Duration, report func(*authclient.BatchStatus)) (*authclient.BatchStatus, error) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		var status *authclient.BatchStatus
		err := session.Call(ctx, func(ctx context.Context, token string) error {
			var err error
			status, err = backend.BatchStatus(ctx, token, jobID)
			return err
		})
		if err != nil {
			return nil, err
		}
		report(status)
		if status.Finished() {
			return status, nil
		}

		select {
		case <-ctx.Done():
			return status, ctx.Err()
		case <-ticker.C:
		}
	}
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
