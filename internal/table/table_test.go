package table

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
)

func TestResolve(t *testing.T) {
	cases := []struct {
		name    string
		columns []string
		want    Roles
	}{
		{"french accented", []string{"Thème", "Autre"}, Roles{Subject: "Thème"}},
		{"decomposed accent", []string{"The\u0300me"}, Roles{Subject: "The\u0300me"}},
		{"decomposed e acute", []string{"Mots-cle\u0301s", "LIEN "}, Roles{Subject: "Mots-cle\u0301s", URL: "LIEN "}},
		{"priority", []string{"keywords", "Sujet", "Links", "url"}, Roles{Subject: "Sujet", URL: "url"}},
		{"duplicates first wins", []string{"URL", "url"}, Roles{URL: "URL"}},
		{"none", []string{"name", "notes"}, Roles{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Resolve(tc.columns); got != tc.want {
				t.Fatalf("Resolve(%q)=%+v want %+v", tc.columns, got, tc.want)
			}
		})
	}
	if !Resolve([]string{"x"}).Empty() {
		t.Fatalf("expected empty roles")
	}
}

func TestReadCSV_BOMAndShortRows(t *testing.T) {
	in := "\ufeffsujet,lien\nsolar,https://a.example\nwind\n"
	tab, err := ReadCSV(strings.NewReader(in))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if tab.Columns[0] != "sujet" {
		t.Fatalf("BOM not stripped: %q", tab.Columns[0])
	}
	if len(tab.Rows) != 2 {
		t.Fatalf("rows %d", len(tab.Rows))
	}
	if tab.Value(0, "lien") != "https://a.example" || tab.Value(1, "lien") != "" || tab.Value(1, "sujet") != "wind" {
		t.Fatalf("unexpected rows: %+v", tab.Rows)
	}
}

func TestReadFile_XLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "in.xlsx")
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	_ = f.SetCellValue(sheet, "A1", "Thème")
	_ = f.SetCellValue(sheet, "B1", "URL")
	_ = f.SetCellValue(sheet, "A2", "renewable energy grants")
	_ = f.SetCellValue(sheet, "B3", "https://example.org/call")
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("save: %v", err)
	}
	tab, err := ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	roles := Resolve(tab.Columns)
	if roles.Subject != "Thème" || roles.URL != "URL" {
		t.Fatalf("roles %+v", roles)
	}
	if len(tab.Rows) != 2 || tab.Value(0, roles.Subject) != "renewable energy grants" || tab.Value(1, roles.URL) != "https://example.org/call" {
		t.Fatalf("unexpected rows: %+v", tab.Rows)
	}
}

func TestReadFile_Errors(t *testing.T) {
	dir := t.TempDir()
	if _, err := ReadFile(filepath.Join(dir, "missing.csv")); err == nil {
		t.Fatalf("expected error for missing file")
	}
	txt := filepath.Join(dir, "in.txt")
	if err := os.WriteFile(txt, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadFile(txt); !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
	legacy := filepath.Join(dir, "old.xls")
	if err := os.WriteFile(legacy, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadFile(legacy); !errors.Is(err, ErrUnsupportedFormat) || !strings.Contains(err.Error(), ".xlsx") {
		t.Fatalf("expected unsupported .xls naming accepted extensions, got %v", err)
	}
	bad := filepath.Join(dir, "bad.xlsx")
	if err := os.WriteFile(bad, []byte("not a zip"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadFile(bad); err == nil {
		t.Fatalf("expected error for corrupt xlsx")
	}
	empty := filepath.Join(dir, "empty.csv")
	if err := os.WriteFile(empty, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadFile(empty); err == nil {
		t.Fatalf("expected error for empty csv")
	}
}
