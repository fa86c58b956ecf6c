package main

import (
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/spf13/cobra"

	"github.com/sicko7947/dynamotools"
	"github.com/sicko7947/dynamotools/builder"
)

func newCreateCmd(params *cliParams) *cobra.Command {
	var (
		definition  string
		deleteFirst bool
		dryRun      bool
	)
	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create the table from the built-in template or a definition file",
		RunE: func(cmd *cobra.Command, args []string) error {
			tools, err := params.newTools(cmd)
			if err != nil {
				return err
			}

			var custom *dynamodb.CreateTableInput
			if definition != "" {
				custom, err = dynamotools.LoadCreateTableInputFile(definition)
				if err != nil {
					return err
				}
			}

			if dryRun {
				input, err := tools.CreateTableRequest(custom)
				if err != nil {
					return err
				}
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(input)
			}

			desc, err := tools.CreateTable(cmd.Context(), deleteFirst, custom)
			if err != nil {
				return err
			}
			if desc == nil {
				fmt.Fprintf(cmd.OutOrStdout(), "table %s was not created, it may already exist\n", tools.TableName())
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "table %s created (%s)\n", tools.TableName(), desc.TableStatus)
			return nil
		},
	}
	createCmd.Flags().StringVarP(&definition, "definition", "d", "", "JSON or YAML CreateTable request sent unchanged")
	createCmd.Flags().BoolVar(&deleteFirst, "delete-first", false, "delete the table before creating it")
	createCmd.Flags().BoolVar(&dryRun, "dry-run", false, "print the create-table request without calling DynamoDB")
	return createCmd
}

func newDeleteCmd(params *cliParams) *cobra.Command {
	return &cobra.Command{
		Use:   "delete",
		Short: "Delete the table, ignoring a missing table",
		RunE: func(cmd *cobra.Command, args []string) error {
			tools, err := params.newTools(cmd)
			if err != nil {
				return err
			}
			tools.DeleteTable(cmd.Context())
			fmt.Fprintf(cmd.OutOrStdout(), "table %s deleted\n", tools.TableName())
			return nil
		},
	}
}

func newSeedCmd(params *cliParams) *cobra.Command {
	var (
		file         string
		hashPassword string
		dryRun       bool
	)
	seedCmd := &cobra.Command{
		Use:   "seed",
		Short: "Write fixtures from a JSON or YAML file",
		RunE: func(cmd *cobra.Command, args []string) error {
			if file == "" {
				return fmt.Errorf("--file is required")
			}

			items, err := dynamotools.LoadItemsFile(file)
			if err != nil {
				return err
			}
			if err := builder.ValidateItems(items); err != nil {
				return fmt.Errorf("invalid fixtures in %s: %w", file, err)
			}

			if dryRun {
				fmt.Fprintf(cmd.OutOrStdout(), "%d items in %d batches\n",
					len(items), (len(items)+dynamotools.MaxBatchSize-1)/dynamotools.MaxBatchSize)
				return nil
			}

			tools, err := params.newTools(cmd)
			if err != nil {
				return err
			}

			result, err := tools.SeedData(cmd.Context(), items, passwordPlugin(hashPassword))
			fmt.Fprintf(cmd.OutOrStdout(), "%d of %d items written to %s in %d batches\n",
				result.Written, result.Items, tools.TableName(), result.Batches)
			return err
		},
	}
	seedCmd.Flags().StringVarP(&file, "file", "f", "", "fixture file (.json, .yaml or .yml)")
	seedCmd.Flags().StringVar(&hashPassword, "hash-password", "", "bcrypt-hash this attribute before writing")
	seedCmd.Flags().BoolVar(&dryRun, "dry-run", false, "validate the fixtures without calling DynamoDB")
	return seedCmd
}
