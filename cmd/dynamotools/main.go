package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/sicko7947/dynamotools"
	"github.com/sicko7947/dynamotools/example/passwordhash"
)

var version = "dev"

// cliParams holds flags shared by every command
type cliParams struct {
	table        string
	endpoint     string
	region       string
	local        bool
	wait         time.Duration
	placeholders map[string]string
	logLevel     string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	params := &cliParams{}

	rootCmd := &cobra.Command{
		Use:          "dynamotools",
		Short:        "Create, delete and seed DynamoDB tables for integration tests",
		Version:      version,
		SilenceUsage: true,
	}

	localDefault, _ := strconv.ParseBool(os.Getenv("LOCAL_DEV"))

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&params.table, "table", "t", "", "table name")
	flags.StringVar(&params.endpoint, "endpoint", "", "DynamoDB endpoint, implies --local (default "+dynamotools.DefaultLocalEndpoint+" when local)")
	flags.StringVar(&params.region, "region", "", "AWS region (default "+dynamotools.DefaultRegion+")")
	flags.BoolVar(&params.local, "local", localDefault, "use the local profile with static credentials (env LOCAL_DEV)")
	flags.DurationVar(&params.wait, "wait", 0, "wait up to this long for create/delete to finish")
	flags.StringToStringVar(&params.placeholders, "placeholder", nil, "extra template placeholders, NAME=value fills %NAME%")
	flags.StringVar(&params.logLevel, "log-level", "info", "log level")

	rootCmd.AddCommand(
		newCreateCmd(params),
		newDeleteCmd(params),
		newSeedCmd(params),
		newServeCmd(params),
	)
	return rootCmd
}

func (p *cliParams) logger(w io.Writer) (zerolog.Logger, error) {
	level, err := zerolog.ParseLevel(p.logLevel)
	if err != nil {
		return zerolog.Logger{}, fmt.Errorf("invalid --log-level: %w", err)
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}).
		With().
		Timestamp().
		Logger().
		Level(level), nil
}

// toolsOptions maps the shared flags onto dynamotools options
func (p *cliParams) toolsOptions(logger zerolog.Logger) []dynamotools.Option {
	opts := []dynamotools.Option{
		dynamotools.WithLogger(logger),
		dynamotools.WithWaitForActive(p.wait),
	}

	opts = append(opts,
		dynamotools.WithConnection(p.connection()),
		dynamotools.WithProfile(p.profile()),
	)

	if len(p.placeholders) > 0 {
		tokens := make(map[string]string, len(p.placeholders))
		for name, value := range p.placeholders {
			tokens["%"+strings.Trim(name, "%")+"%"] = value
		}
		opts = append(opts, dynamotools.WithPlaceholders(tokens))
	}

	return opts
}

// profile is local when --local, LOCAL_DEV or --endpoint is set
func (p *cliParams) profile() dynamotools.Profile {
	if p.local || p.endpoint != "" {
		return dynamotools.ProfileLocal
	}
	return dynamotools.ProfileDefault
}

func (p *cliParams) connection() dynamotools.ConnectionOptions {
	return dynamotools.ConnectionOptions{
		Endpoint: p.endpoint,
		Region:   p.region,
	}
}

func (p *cliParams) tableName() (string, error) {
	if p.table == "" {
		return "", fmt.Errorf("--table is required")
	}
	return p.table, nil
}

func (p *cliParams) newTools(cmd *cobra.Command) (*dynamotools.Tools, error) {
	table, err := p.tableName()
	if err != nil {
		return nil, err
	}
	logger, err := p.logger(cmd.ErrOrStderr())
	if err != nil {
		return nil, err
	}
	return dynamotools.New(cmd.Context(), table, p.toolsOptions(logger)...)
}

func passwordPlugin(attribute string) dynamotools.DataCreatePlugin {
	if attribute == "" {
		return nil
	}
	return passwordhash.New(passwordhash.WithAttribute(attribute))
}
