package sqlcheck

import (
	"github.com/pingcap/tidb/pkg/parser/ast"
)

// Level rates a Warning.
type Level string

const (
	LevelCaution Level = "CAUTION"
	LevelDanger  Level = "DANGER"
)

// Warning flags a statement that may lose data or lock a table.
type Warning struct {
	Level   Level
	Message string
}

func caution(msg string) Warning { return Warning{Level: LevelCaution, Message: msg} }
func danger(msg string) Warning  { return Warning{Level: LevelDanger, Message: msg} }

var alterSpecWarnings = map[ast.AlterTableType][]Warning{
	ast.AlterTableDropColumn: {
		danger("drop column permanently deletes the column and its data"),
		caution("drop column rebuilds the table and locks it"),
	},
	ast.AlterTableModifyColumn: {
		caution("modify column may rebuild the table when the type or size changes"),
	},
	ast.AlterTableChangeColumn: {
		caution("change column may rebuild the table"),
	},
	ast.AlterTableDropIndex: {
		caution("drop index may briefly lock the table"),
	},
	ast.AlterTableDropForeignKey: {
		caution("drop foreign key may briefly lock the table"),
	},
	ast.AlterTableDropPrimaryKey: {
		caution("drop primary key rebuilds the table and locks it"),
	},
	ast.AlterTableRenameTable: {
		caution("rename table acquires an exclusive lock"),
	},
}

// warningsOf rates one parsed statement.
func warningsOf(n ast.StmtNode) []Warning {
	switch stmt := n.(type) {
	case *ast.DropTableStmt:
		if stmt.IsView {
			return nil
		}
		return []Warning{danger("drop table permanently deletes the table and its data")}
	case *ast.DropDatabaseStmt:
		return []Warning{danger("drop database permanently deletes the whole database")}
	case *ast.TruncateTableStmt:
		return []Warning{danger("truncate table deletes every row")}
	case *ast.DeleteStmt:
		if stmt.Where == nil {
			return []Warning{danger("delete without where removes every row")}
		}
	case *ast.UpdateStmt:
		if stmt.Where == nil {
			return []Warning{danger("update without where changes every row")}
		}
	case *ast.CreateIndexStmt:
		return []Warning{caution("create index may lock the table while the index is built")}
	case *ast.AlterTableStmt:
		return alterWarnings(stmt)
	}
	return nil
}

func alterWarnings(stmt *ast.AlterTableStmt) []Warning {
	var out []Warning
	for _, spec := range stmt.Specs {
		if spec.Tp == ast.AlterTableAddConstraint {
			out = append(out, addConstraintWarning(spec))
			continue
		}
		out = append(out, alterSpecWarnings[spec.Tp]...)
	}
	return out
}

func addConstraintWarning(spec *ast.AlterTableSpec) Warning {
	if spec.Constraint == nil {
		return caution("add constraint may lock the table while existing rows are validated")
	}
	switch spec.Constraint.Tp {
	case ast.ConstraintForeignKey:
		return caution("add foreign key may lock the table while existing rows are validated")
	case ast.ConstraintPrimaryKey:
		return caution("add primary key rebuilds the table")
	case ast.ConstraintIndex, ast.ConstraintKey, ast.ConstraintUniq,
		ast.ConstraintUniqKey, ast.ConstraintUniqIndex:
		return caution("add index may lock the table while the index is built")
	}
	return caution("add constraint may lock the table while existing rows are validated")
}

// Destructive reports whether any warning of stmt is LevelDanger.
func (s Statement) Destructive() bool {
	for _, w := range s.Warnings {
		if w.Level == LevelDanger {
			return true
		}
	}
	return false
}
