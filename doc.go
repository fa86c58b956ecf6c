// Package dynamotools creates throwaway DynamoDB tables for integration tests
// and seeds them with fixture data.
//
// A Tools value is bound to one table name. CreateTable builds the table from
// a JSON template (single-table pk/sk layout with two GSIs by default) after
// substituting %TABLENAME% and any other placeholders. SeedData writes
// fixtures in BatchWriteItem batches of up to 25, stamping each item with
// cadt/uadt timestamps and passing it through an optional DataCreatePlugin.
//
//	tools, err := dynamotools.New(ctx, "orders-test",
//		dynamotools.WithConnection(dynamotools.ConnectionOptions{}))
//	if err != nil {
//		return err
//	}
//	if _, err := tools.CreateTable(ctx, true, nil); err != nil {
//		return err
//	}
//	result, err := tools.SeedData(ctx, items, nil)
package dynamotools
