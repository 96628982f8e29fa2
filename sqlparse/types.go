package sqlparse

// QueryType is the statement kind, taken from the first keyword of a query.
type QueryType string

const (
	TypeSelect  QueryType = "SELECT"
	TypeInsert  QueryType = "INSERT"
	TypeUpdate  QueryType = "UPDATE"
	TypeDelete  QueryType = "DELETE"
	TypeUnknown QueryType = "UNKNOWN"
)

// JoinType is the kind of a JOIN clause.
type JoinType string

const (
	JoinInner JoinType = "INNER"
	JoinLeft  JoinType = "LEFT"
	JoinRight JoinType = "RIGHT"
	JoinFull  JoinType = "FULL"
	JoinOuter JoinType = "OUTER"
	JoinCross JoinType = "CROSS"
)

// SortDirection is the ORDER BY direction.
type SortDirection string

const (
	SortAsc  SortDirection = "ASC"
	SortDesc SortDirection = "DESC"
)

// ParsedQuery is the structural decomposition of one textual query.
// Optional clauses are nil when the query does not contain them.
type ParsedQuery struct {
	Type    QueryType      `json:"type"`
	Select  SelectClause   `json:"select"`
	From    FromClause     `json:"from"`
	Where   *WhereClause   `json:"where,omitempty"`
	Join    []JoinClause   `json:"join,omitempty"`
	GroupBy *GroupByClause `json:"groupBy,omitempty"`
	Having  *WhereClause   `json:"having,omitempty"`
	OrderBy *OrderByClause `json:"orderBy,omitempty"`
	Limit   *int           `json:"limit,omitempty"`
	Offset  *int           `json:"offset,omitempty"`
}

// SelectClause holds the select list. AllColumns is set only for a bare "*",
// in which case Columns is empty.
type SelectClause struct {
	Columns    []string `json:"columns"`
	AllColumns bool     `json:"allColumns"`
}

// FromClause lists the referenced tables in source order. Alias maps a table
// name to its alias and only holds tables that were given one.
type FromClause struct {
	Tables []string          `json:"tables"`
	Alias  map[string]string `json:"alias"`
}

// WhereClause holds a predicate body. The whole body is kept as a single
// condition string.
type WhereClause struct {
	Conditions []string `json:"conditions"`
}

// JoinClause is one JOIN in the FROM clause.
type JoinClause struct {
	Type  JoinType `json:"type"`
	Table string   `json:"table"`
	On    string   `json:"on"`
}

// GroupByClause lists the grouping columns.
type GroupByClause struct {
	Columns []string `json:"columns"`
}

// OrderByClause lists the sort columns with a single direction.
type OrderByClause struct {
	Columns   []string      `json:"columns"`
	Direction SortDirection `json:"direction"`
}
