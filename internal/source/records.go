package source

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// RegulatedIngredient is one entry of a regulatory annex.
type RegulatedIngredient struct {
	Reference   string
	Name        string
	INCIName    string
	CAS         string
	EC          string
	Restriction string
}

// IngredientColumns is the column layout of tables built from RegulatedIngredient.
var IngredientColumns = []string{
	"reference_number", "chemical_name", "inci_name", "cas_number", "ec_number", "restriction_category",
}

// Row renders the ingredient in IngredientColumns order.
func (i RegulatedIngredient) Row() []string {
	return []string{i.Reference, i.Name, i.INCIName, i.CAS, i.EC, i.Restriction}
}

// ProductRecord is a cosmetic product as returned by the product search API.
type ProductRecord struct {
	Barcode     string
	Name        string
	Brand       string
	Categories  string
	Countries   string
	Ingredients string
	Source      string
}

// ProductColumns is the column layout of tables built from ProductRecord.
var ProductColumns = []string{
	"barcode", "product_name", "brand", "categories", "countries", "ingredients_text", "source",
}

// Row renders the product in ProductColumns order.
func (p ProductRecord) Row() []string {
	return []string{p.Barcode, p.Name, p.Brand, p.Categories, p.Countries, p.Ingredients, p.Source}
}

// NormalizeName puts an ingredient or substance name in NFC form and
// collapses runs of whitespace. Case is left alone.
func NormalizeName(s string) string {
	return strings.Join(strings.Fields(norm.NFC.String(s)), " ")
}
