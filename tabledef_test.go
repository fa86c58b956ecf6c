package dynamotools

import (
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultTableDefinition(t *testing.T) {
	def := DefaultTableDefinition()

	assert.Equal(t, TableNamePlaceholder, def.TableName)
	assert.Equal(t, "PAY_PER_REQUEST", def.BillingMode)
	require.Len(t, def.GlobalSecondaryIndexes, 2)
	assert.NoError(t, def.Validate())

	// Each call returns an independent copy
	def.GlobalSecondaryIndexes[0].IndexName = "changed"
	assert.Equal(t, "GSI1", DefaultTableDefinition().GlobalSecondaryIndexes[0].IndexName)
}

func TestResolveTemplate(t *testing.T) {
	def, err := resolveTemplate(DefaultTableDefinition(), map[string]string{
		TableNamePlaceholder: "orders-test",
	})
	require.NoError(t, err)

	assert.Equal(t, "orders-test", def.TableName)
	assert.Equal(t, "orders-test", def.Tags[0].Value)
}

func TestTableDefinition_Validate(t *testing.T) {
	valid := func() TableDefinition {
		return TableDefinition{
			TableName: "orders-test",
			AttributeDefinitions: []AttributeDefinition{
				{AttributeName: "pk", AttributeType: "S"},
				{AttributeName: "sk", AttributeType: "S"},
			},
			KeySchema: []KeySchemaElement{
				{AttributeName: "pk", KeyType: "HASH"},
				{AttributeName: "sk", KeyType: "RANGE"},
			},
		}
	}

	tests := []struct {
		name    string
		mutate  func(d *TableDefinition)
		wantErr string
	}{
		{
			name:   "valid",
			mutate: func(d *TableDefinition) {},
		},
		{
			name:    "missing table name",
			mutate:  func(d *TableDefinition) { d.TableName = "" },
			wantErr: "no TableName",
		},
		{
			name:    "bad attribute type",
			mutate:  func(d *TableDefinition) { d.AttributeDefinitions[0].AttributeType = "X" },
			wantErr: "invalid type",
		},
		{
			name:    "undeclared key",
			mutate:  func(d *TableDefinition) { d.KeySchema[1].AttributeName = "other" },
			wantErr: "not declared",
		},
		{
			name: "two hash keys",
			mutate: func(d *TableDefinition) {
				d.KeySchema[1].KeyType = "HASH"
			},
			wantErr: "exactly one HASH",
		},
		{
			name:    "bad key type",
			mutate:  func(d *TableDefinition) { d.KeySchema[0].KeyType = "PRIMARY" },
			wantErr: "invalid key type",
		},
		{
			name: "unnamed index",
			mutate: func(d *TableDefinition) {
				d.GlobalSecondaryIndexes = []SecondaryIndex{{KeySchema: d.KeySchema}}
			},
			wantErr: "no IndexName",
		},
		{
			name:    "provisioned without throughput",
			mutate:  func(d *TableDefinition) { d.BillingMode = "PROVISIONED" },
			wantErr: "ProvisionedThroughput",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			def := valid()
			tt.mutate(&def)

			err := def.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestTableDefinition_CreateTableInput(t *testing.T) {
	def, err := resolveTemplate(DefaultTableDefinition(), map[string]string{
		TableNamePlaceholder: "orders-test",
	})
	require.NoError(t, err)
	def.StreamSpecification = &StreamSpecification{StreamEnabled: true, StreamViewType: "NEW_IMAGE"}
	def.GlobalSecondaryIndexes[1].Projection = nil

	input, err := def.CreateTableInput()
	require.NoError(t, err)

	assert.Equal(t, "orders-test", aws.ToString(input.TableName))
	assert.Len(t, input.AttributeDefinitions, 3)
	assert.Equal(t, types.ScalarAttributeTypeS, input.AttributeDefinitions[0].AttributeType)
	assert.Nil(t, input.ProvisionedThroughput)

	gsi1 := input.GlobalSecondaryIndexes[0]
	assert.Equal(t, "sk", aws.ToString(gsi1.KeySchema[0].AttributeName))
	assert.Equal(t, types.KeyTypeHash, gsi1.KeySchema[0].KeyType)
	assert.Equal(t, types.ProjectionTypeAll, gsi1.Projection.ProjectionType)

	// Missing projection defaults to ALL
	assert.Equal(t, types.ProjectionTypeAll, input.GlobalSecondaryIndexes[1].Projection.ProjectionType)

	require.NotNil(t, input.StreamSpecification)
	assert.True(t, aws.ToBool(input.StreamSpecification.StreamEnabled))
	assert.Equal(t, types.StreamViewTypeNewImage, input.StreamSpecification.StreamViewType)
}

func TestTableDefinition_CreateTableInputInvalid(t *testing.T) {
	_, err := TableDefinition{}.CreateTableInput()
	assert.Error(t, err)
}
