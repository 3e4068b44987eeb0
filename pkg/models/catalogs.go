package models

// Metadata type markers of the catalog files.
const (
	MetadataTypeEligibility      = "OTM_MIGRATION_PROJECT_ELIGIBILITY"
	MetadataTypeDomainStatistics = "OTM_DOMAIN_TABLE_STATISTICS"
)

// TableSchema is one file of the schema directory.
type TableSchema struct {
	Table            TableInfo         `json:"table"`
	Columns          []Column          `json:"columns"`
	PrimaryKey       []string          `json:"primaryKey"`
	ForeignKeys      []ForeignKey      `json:"foreignKeys"`
	CheckConstraints []CheckConstraint `json:"checkConstraints,omitempty"`
}

// TableInfo names the table and its owning schema.
type TableInfo struct {
	Name   string `json:"name"`
	Schema string `json:"schema"`
}

// Column describes one column as exported from the OTM data dictionary.
type Column struct {
	Name            string      `json:"name"`
	DataType        string      `json:"dataType"`
	Size            interface{} `json:"size,omitempty"`
	Nullable        Flag        `json:"nullable"`
	DefaultValue    interface{} `json:"defaultValue,omitempty"`
	Description     string      `json:"description,omitempty"`
	CheckConstraint string      `json:"checkConstraint,omitempty"`
}

// ForeignKey links local columns to a referenced table.
type ForeignKey struct {
	Name              string   `json:"name,omitempty"`
	Columns           []string `json:"columns"`
	Column            string   `json:"column,omitempty"`
	ReferencedTable   string   `json:"referencedTable"`
	ReferencedColumns []string `json:"referencedColumns,omitempty"`
}

// CheckConstraint is a table-level check condition on one column.
type CheckConstraint struct {
	Name            string `json:"name,omitempty"`
	ColumnName      string `json:"columnName"`
	SearchCondition string `json:"searchCondition"`
}

// EligibilityCatalog is the Deployment Policy input.
type EligibilityCatalog struct {
	MetadataType          string            `json:"metadataType"`
	DefaultDeploymentType string            `json:"defaultDeploymentType"`
	Tables                []EligibilityRule `json:"tables"`
}

// EligibilityRule sets the deployment type of one table, optionally only for
// some domains.
type EligibilityRule struct {
	TableName      string   `json:"tableName"`
	DeploymentType string   `json:"deploymentType"`
	AllowedDomains []string `json:"allowedDomains,omitempty"`
}

// DomainStatisticsCatalog lists, per table, the row count of every domain.
type DomainStatisticsCatalog struct {
	MetadataType string            `json:"metadataType"`
	GeneratedAt  string            `json:"generatedAt,omitempty"`
	Tables       []TableStatistics `json:"tables"`
}

// TableStatistics is one table of the domain statistics catalog.
type TableStatistics struct {
	TableName    string         `json:"tableName"`
	ParsedCounts map[string]int `json:"parsedCounts"`
}
