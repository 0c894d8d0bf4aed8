package files

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/hyperifyio/regextract/internal/source"
)

func writeFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return p
}

func writeAnnex(t *testing.T, dir string, rows [][]interface{}) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName("Sheet1", "Annex III"); err != nil {
		t.Fatalf("rename sheet: %v", err)
	}
	for i, row := range rows {
		cellRef, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatalf("cell name: %v", err)
		}
		r := row
		if err := f.SetSheetRow("Annex III", cellRef, &r); err != nil {
			t.Fatalf("set row %d: %v", i, err)
		}
	}
	p := filepath.Join(dir, "COSING_Annex_III_v2.xlsx")
	if err := f.SaveAs(p); err != nil {
		t.Fatalf("save workbook: %v", err)
	}
	return p
}

func TestReadDelimited_MissingFile(t *testing.T) {
	r := readDelimited(filepath.Join(t.TempDir(), "nope.csv"), TagSephora, SephoraRequired)
	if r.Status != source.StatusFailed || r.Rows != 0 {
		t.Fatalf("expected failed empty result, got %+v", r)
	}
	if !errors.Is(r.Err, source.ErrMissingResource) {
		t.Fatalf("expected missing resource, got %v", r.Err)
	}
}

func TestReadDelimited_SkipsMalformedRows(t *testing.T) {
	dir := t.TempDir()
	csvData := "product_id,product_name,brand_name\n" +
		"P1,Lip Balm,Acme\n" +
		"P2,Too,Many,Fields\n" +
		",No Id,Acme\n" +
		"P3,Serum,Other\n"
	p := writeFile(t, dir, "product_info.csv", []byte(csvData))

	r := readDelimited(p, TagSephora, SephoraRequired)
	if r.Status != source.StatusPartial {
		t.Fatalf("status=%s, want partial", r.Status)
	}
	if r.Rows != 2 || r.Table.Len() != 2 {
		t.Fatalf("rows=%d, want 2 parsed records", r.Rows)
	}
	if r.Table.Rows[1][1] != "Serum" {
		t.Fatalf("unexpected second row: %v", r.Table.Rows[1])
	}
}

func TestReadDelimited_AllRowsGood(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, "cosmetics.csv", []byte("\xEF\xBB\xBFLabel,Brand,Name,Price\nMoisturizer,LA MER,Creme,175\n"))
	r := readDelimited(p, TagSkincare, SkincareRequired)
	if r.Status != source.StatusSucceeded || r.Rows != 1 {
		t.Fatalf("unexpected result: %+v", r)
	}
	if r.Table.Columns[0] != "Label" {
		t.Fatalf("BOM should be stripped from first header, got %q", r.Table.Columns[0])
	}
}

func TestReadDelimited_Windows1252(t *testing.T) {
	dir := t.TempDir()
	// 0xE9 is "é" in Windows-1252 and invalid as a lone UTF-8 byte.
	p := writeFile(t, dir, "cosmetics.csv", []byte("Brand,Name\nClarins,Cr\xE9me\n"))
	r := readDelimited(p, TagSkincare, SkincareRequired)
	if r.Rows != 1 {
		t.Fatalf("rows=%d, want 1", r.Rows)
	}
	if got := r.Table.Rows[0][1]; got != "Cr\u00e9me" {
		t.Fatalf("expected decoded name, got %q", got)
	}
}

func TestReadDelimited_MissingRequiredColumn(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, "cosmetics.csv", []byte("Label,Price\nMoisturizer,10\n"))
	r := readDelimited(p, TagSkincare, SkincareRequired)
	if r.Status != source.StatusFailed || !errors.Is(r.Err, source.ErrMalformedResponse) {
		t.Fatalf("expected malformed failure, got %+v", r)
	}
}

func TestReadDelimited_AllRowsMalformedIsFailed(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, "cosmetics.csv", []byte("Brand,Name\n,\n,x\n"))
	r := readDelimited(p, TagSkincare, SkincareRequired)
	if r.Status != source.StatusFailed || r.Rows != 0 {
		t.Fatalf("expected failed result, got %+v", r)
	}
}

func TestReadAnnex_LocatesHeaderAndSkipsBadRows(t *testing.T) {
	dir := t.TempDir()
	p := writeAnnex(t, dir, [][]interface{}{
		{"COSING Annex III - list of restricted substances"},
		{},
		{"Reference Number", "Chemical name / INN", "Name of Common Ingredients Glossary", "CAS Number", "EC Number"},
		{"1", "Boric acid", "BORIC ACID", "10043-35-3", "233-139-2"},
		{"", "", "orphan glossary"},
		{"2a", "Thioglycollic acid", "THIOGLYCOLIC ACID", "68-11-1", "200-677-4"},
	})

	r := readAnnex(p, TagCosing)
	if r.Status != source.StatusPartial {
		t.Fatalf("status=%s, want partial (err=%v)", r.Status, r.Err)
	}
	if r.Rows != 2 {
		t.Fatalf("rows=%d, want 2", r.Rows)
	}
	first := r.Table.Rows[0]
	if first[0] != "1" || first[1] != "Boric acid" || first[3] != "10043-35-3" {
		t.Fatalf("unexpected first row: %v", first)
	}
	if first[5] != "Annex III" {
		t.Fatalf("restriction category=%q, want Annex III", first[5])
	}
}

func TestReadAnnex_NormalizesNames(t *testing.T) {
	dir := t.TempDir()
	p := writeAnnex(t, dir, [][]interface{}{
		{"Reference Number", "Chemical name / INN", "Name of Common Ingredients Glossary", "CAS Number", "EC Number"},
		{"7", "Cre\u0301me  de\tsoja", " SOJA\u00a0 EXTRACT ", "", ""},
	})

	r := readAnnex(p, TagCosing)
	if r.Status != source.StatusSucceeded || r.Rows != 1 {
		t.Fatalf("expected one succeeded row, got %+v", r)
	}
	row := r.Table.Rows[0]
	if row[1] != "Cr\u00e9me de soja" {
		t.Fatalf("chemical_name=%q, want composed and collapsed", row[1])
	}
	if row[2] != "SOJA EXTRACT" {
		t.Fatalf("inci_name=%q, want collapsed whitespace", row[2])
	}
}

func TestReadAnnex_LegacyXLS(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, "COSING_Annex_III_v2.xls", []byte{0xD0, 0xCF, 0x11, 0xE0})
	r := readAnnex(p, TagCosing)
	if r.Status != source.StatusFailed || !errors.Is(r.Err, source.ErrMalformedResponse) {
		t.Fatalf("expected malformed failure, got %+v", r)
	}
}

func TestReadAnnex_NoHeader(t *testing.T) {
	dir := t.TempDir()
	p := writeAnnex(t, dir, [][]interface{}{{"just", "some", "cells"}})
	r := readAnnex(p, TagCosing)
	if r.Status != source.StatusFailed {
		t.Fatalf("expected failed result, got %+v", r)
	}
}

func TestExtractor_IsolatesMissingFiles(t *testing.T) {
	dir := t.TempDir()
	sephora := writeFile(t, dir, "product_info.csv", []byte("product_id,product_name\nP1,Balm\nP2,Mask\n"))
	e := &Extractor{
		CosingPath:   filepath.Join(dir, "missing.xlsx"),
		SephoraPath:  sephora,
		SkincarePath: filepath.Join(dir, "missing.csv"),
	}
	results := e.Extract(context.Background())
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	want := []struct {
		tag    string
		status source.Status
		rows   int
	}{
		{TagCosing, source.StatusFailed, 0},
		{TagSephora, source.StatusSucceeded, 2},
		{TagSkincare, source.StatusFailed, 0},
	}
	for i, w := range want {
		r := results[i]
		if r.Tag != w.tag || r.Status != w.status || r.Rows != w.rows {
			t.Fatalf("result %d = {%s %s %d}, want %+v", i, r.Tag, r.Status, r.Rows, w)
		}
	}
}
