package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/glue"
	"github.com/aws/aws-sdk-go-v2/service/glue/types"

	"github.com/kingdave4/Nba-Data-Lake/pkg/logger"

	"go.uber.org/zap"
)

// Hive plumbing for tables of line-delimited JSON documents
const (
	inputFormat  = "org.apache.hadoop.mapred.TextInputFormat"
	outputFormat = "org.apache.hadoop.hive.ql.io.HiveIgnoreKeyTextOutputFormat"
	jsonSerDe    = "org.openx.data.jsonserde.JsonSerDe"
)

// Catalog abstracts the metadata catalog that fronts the lake
type Catalog interface {
	// EnsureDatabase makes sure the database exists
	EnsureDatabase(ctx context.Context, name string) error

	// RegisterTable creates or refreshes the table definition
	RegisterTable(ctx context.Context, database string, spec TableSpec) error
}

// GlueAPI is the subset of the Glue client the catalog uses
type GlueAPI interface {
	CreateDatabase(ctx context.Context, params *glue.CreateDatabaseInput, optFns ...func(*glue.Options)) (*glue.CreateDatabaseOutput, error)
	CreateTable(ctx context.Context, params *glue.CreateTableInput, optFns ...func(*glue.Options)) (*glue.CreateTableOutput, error)
	UpdateTable(ctx context.Context, params *glue.UpdateTableInput, optFns ...func(*glue.Options)) (*glue.UpdateTableOutput, error)
}

// Compile-time checks
var (
	_ GlueAPI = (*glue.Client)(nil)
	_ Catalog = (*GlueCatalog)(nil)
)

// Column describes one column of a catalog table
type Column struct {
	Name string
	Type string
}

// TableSpec describes an external table registered over a lake location
type TableSpec struct {
	Name     string
	Columns  []Column
	Location string
}

// GlueCatalog manages databases and tables in the Glue Data Catalog
type GlueCatalog struct {
	client GlueAPI
	logger *logger.Logger
}

// NewGlueCatalog creates a catalog using the given Glue client
func NewGlueCatalog(client GlueAPI, l *logger.Logger) *GlueCatalog {
	return &GlueCatalog{
		client: client,
		logger: l,
	}
}

// EnsureDatabase creates the database if it does not exist
func (c *GlueCatalog) EnsureDatabase(ctx context.Context, name string) error {
	_, err := c.client.CreateDatabase(ctx, &glue.CreateDatabaseInput{
		DatabaseInput: &types.DatabaseInput{
			Name:        aws.String(name),
			Description: aws.String("Glue database for NBA sports analytics"),
		},
	})
	if err != nil {
		var exists *types.AlreadyExistsException
		if errors.As(err, &exists) {
			c.logger.Debug("database already exists", zap.String("database", name))
			return nil
		}
		return fmt.Errorf("failed to create database %s: %w", name, err)
	}

	c.logger.Info("database created", zap.String("database", name))
	return nil
}

// RegisterTable creates the external table, or pushes the current definition
// over an existing one so reruns converge on the same schema.
func (c *GlueCatalog) RegisterTable(ctx context.Context, database string, spec TableSpec) error {
	input := tableInput(spec)

	_, err := c.client.CreateTable(ctx, &glue.CreateTableInput{
		DatabaseName: aws.String(database),
		TableInput:   input,
	})
	if err == nil {
		c.logger.Info("table created",
			zap.String("database", database),
			zap.String("table", spec.Name),
			zap.String("location", spec.Location))
		return nil
	}

	var exists *types.AlreadyExistsException
	if !errors.As(err, &exists) {
		return fmt.Errorf("failed to create table %s.%s: %w", database, spec.Name, err)
	}

	if _, err := c.client.UpdateTable(ctx, &glue.UpdateTableInput{
		DatabaseName: aws.String(database),
		TableInput:   input,
	}); err != nil {
		return fmt.Errorf("failed to update table %s.%s: %w", database, spec.Name, err)
	}

	c.logger.Info("table updated",
		zap.String("database", database),
		zap.String("table", spec.Name))
	return nil
}

func tableInput(spec TableSpec) *types.TableInput {
	columns := make([]types.Column, len(spec.Columns))
	for i, col := range spec.Columns {
		columns[i] = types.Column{
			Name: aws.String(col.Name),
			Type: aws.String(col.Type),
		}
	}

	return &types.TableInput{
		Name:      aws.String(spec.Name),
		TableType: aws.String("EXTERNAL_TABLE"),
		StorageDescriptor: &types.StorageDescriptor{
			Columns:      columns,
			Location:     aws.String(spec.Location),
			InputFormat:  aws.String(inputFormat),
			OutputFormat: aws.String(outputFormat),
			SerdeInfo: &types.SerDeInfo{
				SerializationLibrary: aws.String(jsonSerDe),
			},
		},
	}
}
