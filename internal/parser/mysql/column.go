package mysql

import (
	"fmt"
	"strings"

	"github.com/pingcap/tidb/pkg/parser/ast"
	"github.com/pingcap/tidb/pkg/parser/format"

	"sqlkit/internal/core"
)

// ddlTypeAliases widens MySQL types the model has no exact match for.
var ddlTypeAliases = map[string]core.DataType{
	"tinyint":   core.TypeInt,
	"smallint":  core.TypeInt,
	"mediumint": core.TypeInt,
	"bigint":    core.TypeInt,
	"char":      core.TypeVarchar,
	"tinytext":  core.TypeText,
	"longtext":  core.TypeMediumText,
	"date":      core.TypeDatetime,
}

func columnType(colDef *ast.ColumnDef) (core.DataType, error) {
	raw := strings.ToLower(colDef.Tp.String())
	base := raw
	if i := strings.IndexAny(raw, "( "); i >= 0 {
		base = raw[:i]
	}
	if base == "tinyint" && colDef.Tp.GetFlen() == 1 {
		return core.TypeBoolean, nil
	}
	if dt, ok := core.NormalizeDataType(base); ok {
		return dt, nil
	}
	if dt, ok := ddlTypeAliases[base]; ok {
		return dt, nil
	}
	return "", &core.ValidationError{Entity: "column", Name: colDef.Name.Name.O, Field: "type", Message: fmt.Sprintf("unsupported type %q", raw), Err: core.ErrInvalidType}
}

func newColumnFromDef(colDef *ast.ColumnDef) (*core.Column, error) {
	name := colDef.Name.Name.O
	if !core.ValidIdentifier(name) {
		return nil, &core.ValidationError{Entity: "column", Name: name, Field: "name", Err: core.ErrInvalidIdentifier}
	}
	dt, err := columnType(colDef)
	if err != nil {
		return nil, err
	}
	col := core.NewColumn(name, string(dt), 0)
	if lo, hi, _, sized := dt.SizeRange(); sized {
		if flen := colDef.Tp.GetFlen(); flen >= lo && flen <= hi {
			_ = col.SetSize(flen)
		}
	}
	if dt == core.TypeDecimal {
		if dec := colDef.Tp.GetDecimal(); dec >= 0 {
			_ = col.SetScale(dec)
		}
	}
	col.SetNullable(true)
	return col, nil
}

func (p *Parser) addColumn(conv *conversion, t *core.Table, colDef *ast.ColumnDef) error {
	col, err := newColumnFromDef(colDef)
	if err != nil {
		return err
	}
	for _, opt := range colDef.Options {
		if err := p.applyColumnOption(conv, t, col, opt); err != nil {
			return err
		}
	}
	return t.AddColumn(col.Name(), col)
}

// modifyColumn applies the options of an alter table modify clause to the
// existing column of the same name.
func (p *Parser) modifyColumn(t *core.Table, colDef *ast.ColumnDef) error {
	col := t.ColumnByName(colDef.Name.Name.O)
	if col == nil {
		return noSuchColumn(t, colDef.Name.Name.O)
	}
	for _, opt := range colDef.Options {
		if opt.Tp == ast.ColumnOptionAutoIncrement {
			if err := col.SetAutoIncrement(true); err != nil {
				return err
			}
		}
	}
	return nil
}

func (p *Parser) applyColumnOption(conv *conversion, t *core.Table, col *core.Column, opt *ast.ColumnOption) error {
	if opt == nil {
		return nil
	}

	switch opt.Tp {
	case ast.ColumnOptionNotNull:
		col.SetNullable(false)
	case ast.ColumnOptionNull:
		col.SetNullable(true)
	case ast.ColumnOptionPrimaryKey:
		col.SetPrimary(true)
	case ast.ColumnOptionAutoIncrement:
		return col.SetAutoIncrement(true)
	case ast.ColumnOptionDefaultValue:
		applyDefault(col, opt)
	case ast.ColumnOptionOnUpdate:
		return col.AutoUpdate()
	case ast.ColumnOptionUniqKey:
		col.SetUnique(true)
	case ast.ColumnOptionComment:
		if s := exprToString(opt.Expr); s != nil {
			col.SetComment(*s)
		}
	case ast.ColumnOptionReference:
		conv.pending = append(conv.pending, pendingFromReference(t, "", []string{col.Name()}, opt.Refer))
	}
	return nil
}

func applyDefault(col *core.Column, opt *ast.ColumnOption) {
	s := exprToString(opt.Expr)
	if s == nil {
		return
	}
	upper := strings.ToUpper(*s)
	switch {
	case upper == "NULL":
		return
	case col.Type().IsTemporal() && (strings.HasPrefix(upper, "CURRENT_TIMESTAMP") || strings.HasPrefix(upper, "NOW(")):
		col.SetDefault(core.CurrentTimestamp)
	default:
		col.SetDefault(*s)
	}
}

func exprToString(expr ast.ExprNode) *string {
	if expr == nil {
		return nil
	}

	var sb strings.Builder
	restoreCtx := format.NewRestoreCtx(format.DefaultRestoreFlags, &sb)
	if err := expr.Restore(restoreCtx); err != nil {
		return nil
	}
	s := strings.TrimSpace(sb.String())

	if unquoted, ok := tryUnquoteSQLStringLiteral(s); ok {
		return &unquoted
	}

	return &s
}

func tryUnquoteSQLStringLiteral(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if len(s) < 2 || s[len(s)-1] != '\'' {
		return "", false
	}

	if s[0] == '\'' {
		return strings.ReplaceAll(s[1:len(s)-1], "''", "'"), true
	}

	q := strings.IndexByte(s, '\'')
	if q <= 0 {
		return "", false
	}
	prefix := strings.TrimSpace(s[:q])
	if !isSQLStringIntroducer(prefix) {
		return "", false
	}
	return strings.ReplaceAll(s[q+1:len(s)-1], "''", "'"), true
}

// isSQLStringIntroducer reports whether prefix is N or a _charset introducer.
func isSQLStringIntroducer(prefix string) bool {
	if strings.EqualFold(prefix, "N") {
		return true
	}
	if !strings.HasPrefix(prefix, "_") || len(prefix) == 1 {
		return false
	}
	for _, r := range prefix[1:] {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
		case r == '_':
		default:
			return false
		}
	}
	return true
}
