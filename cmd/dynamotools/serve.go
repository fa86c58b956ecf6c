package main

import (
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/spf13/cobra"

	"github.com/sicko7947/dynamotools"
	"github.com/sicko7947/dynamotools/server"
	"github.com/sicko7947/dynamotools/store"
)

func newServeCmd(params *cliParams) *cobra.Command {
	var (
		addr         string
		memory       bool
		hashPassword string
	)
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve table setup and seeding over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := params.logger(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			opts := params.toolsOptions(logger)

			var factory server.ToolsFactory
			if memory {
				client := store.NewMemoryClient()
				factory = func(table string) (*dynamotools.Tools, error) {
					return dynamotools.NewWithClient(client, table, opts...)
				}
			} else {
				awsCfg, err := dynamotools.LoadAWSConfig(cmd.Context(), params.profile(), params.connection())
				if err != nil {
					return err
				}
				client := dynamodb.NewFromConfig(awsCfg)
				factory = func(table string) (*dynamotools.Tools, error) {
					return dynamotools.NewWithClient(client, table, opts...)
				}
			}

			srv := server.New(factory,
				server.WithLogger(logger),
				server.WithPlugin(passwordPlugin(hashPassword)),
				server.WithVersion(version),
			)

			// Start server in a goroutine
			errCh := make(chan error, 1)
			go func() {
				errCh <- srv.Listen(addr)
			}()

			select {
			case err := <-errCh:
				return err
			case <-cmd.Context().Done():
			}

			logger.Info().Msg("Shutting down server...")

			// Graceful shutdown with 5 second timeout
			if err := srv.Shutdown(5 * time.Second); err != nil {
				logger.Error().Err(err).Msg("Server forced to shutdown")
			}

			logger.Info().Msg("Server stopped")
			return nil
		},
	}
	serveCmd.Flags().StringVar(&addr, "addr", ":3000", "listen address")
	serveCmd.Flags().BoolVar(&memory, "memory", false, "use an in-memory backend instead of DynamoDB")
	serveCmd.Flags().StringVar(&hashPassword, "hash-password", "", "bcrypt-hash this attribute before writing")
	return serveCmd
}
