package mysql

import (
	"github.com/pingcap/tidb/pkg/parser/ast"

	"sqlkit/internal/core"
)

// parseTableOptions applies the options the model keeps. The collation is
// derived from the server version and is not read.
func parseTableOptions(opts []*ast.TableOption, t *core.Table) {
	for _, opt := range opts {
		switch opt.Tp {
		case ast.TableOptionEngine:
			t.SetEngine(opt.StrValue)
		case ast.TableOptionCharset:
			t.SetCharset(opt.StrValue)
		case ast.TableOptionComment:
			t.SetComment(opt.StrValue)
		}
	}
}
