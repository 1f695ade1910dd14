package models

// ColumnRole is the logical meaning of a source column.
type ColumnRole int

const (
	RoleDate ColumnRole = iota
	RoleDescription
	RoleAmount
	RoleType
	RoleCredit
	RoleDebit
)

func (r ColumnRole) String() string {
	switch r {
	case RoleDate:
		return "date"
	case RoleDescription:
		return "description"
	case RoleAmount:
		return "amount"
	case RoleType:
		return "type"
	case RoleCredit:
		return "credit"
	case RoleDebit:
		return "debit"
	default:
		return "unknown"
	}
}

// ColumnRoleMap maps each detected role to its source header.
type ColumnRoleMap map[ColumnRole]string

// FormatVariant is the column layout of a bank export.
type FormatVariant int

const (
	// TypeAmounts has one amount column plus a credit/debit type column.
	TypeAmounts FormatVariant = iota + 1
	// OnlyAmounts has a single signed amount column.
	OnlyAmounts
	// CrDbAmounts has separate credit and debit columns.
	CrDbAmounts
)

func (v FormatVariant) String() string {
	switch v {
	case TypeAmounts:
		return "TYPE_AMOUNTS"
	case OnlyAmounts:
		return "ONLY_AMOUNTS"
	case CrDbAmounts:
		return "CR_DB_AMOUNTS"
	default:
		return "UNKNOWN"
	}
}

// RawTable is a file as read: folded header names and one map per row.
type RawTable struct {
	Header []string
	Rows   []map[string]string
}
