// Package pages renders the storefront's server-side pages. Each page is an
// html/template file cloned on top of the shared layout and partials, exposed
// as a templ.Component so handlers render it the same way everywhere.
package pages

import (
	"context"
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"path"
	"strings"
	"time"

	"github.com/a-h/templ"
	"github.com/shopspring/decimal"

	"enstore_storefront/internal/fee"
	"enstore_storefront/internal/models"
	"enstore_storefront/internal/status"
)

//go:embed html
var files embed.FS

var funcs = template.FuncMap{
	"rupiah":    fee.FormatRupiah,
	"remaining": status.FormatRemaining,
	"upper":     strings.ToUpper,
	"add":       func(a, b int) int { return a + b },
	"rupiahOrDash": func(d decimal.Decimal) string {
		if d.IsZero() {
			return "-"
		}
		return fee.FormatRupiah(d)
	},
	"datetime": func(t interface{}) string {
		switch v := t.(type) {
		case time.Time:
			return v.Format("02 Jan 2006 15:04")
		case *time.Time:
			if v == nil {
				return "-"
			}
			return v.Format("02 Jan 2006 15:04")
		}
		return "-"
	},
	"statusClass": func(s models.TransactionStatus) string {
		switch s {
		case models.TransactionSuccess:
			return "success"
		case models.TransactionFailed, models.TransactionExpired, models.TransactionRefunded:
			return "danger"
		default:
			return "warning"
		}
	},
}

var templates = mustParse()

// mustParse clones the layout and partials once per page so every page can
// define its own "content" block.
func mustParse() map[string]*template.Template {
	base := template.Must(template.New("").Funcs(funcs).ParseFS(files, "html/layouts/*.html", "html/partials/*.html"))

	pageFiles, err := fs.Glob(files, "html/pages/*.html")
	if err != nil {
		panic(err)
	}

	out := make(map[string]*template.Template, len(pageFiles))
	for _, file := range pageFiles {
		t := template.Must(base.Clone())
		template.Must(t.ParseFS(files, file))
		out[path.Base(file)] = t
	}

	standalone, _ := fs.Glob(files, "html/*.html")
	for _, file := range standalone {
		out[path.Base(file)] = template.Must(template.New(path.Base(file)).Funcs(funcs).ParseFS(files, file))
	}
	return out
}

// render returns a component that executes the named page. Layout pages run
// their "base" definition; standalone ones run directly.
func render(name string, data interface{}) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		t, ok := templates[name]
		if !ok {
			return fmt.Errorf("template not found: %s", name)
		}
		if t.Lookup("base") != nil {
			return t.ExecuteTemplate(w, "base", data)
		}
		return t.ExecuteTemplate(w, name, data)
	})
}
