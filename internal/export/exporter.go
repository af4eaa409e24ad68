package export

import (
	"fmt"
	"io"

	"github.com/AlosedAG/market-creation/internal/model"
	"github.com/AlosedAG/market-creation/internal/storage"
)

// Exporter writes CSV files into the export directory. File names are derived
// from the topic or URL, so exporting the same subject again overwrites it.
type Exporter struct {
	fs *storage.FileSystem
}

func NewExporter(fs *storage.FileSystem) *Exporter {
	return &Exporter{fs: fs}
}

// Taxonomy saves t and returns the written path.
func (e *Exporter) Taxonomy(topic string, t model.MarketTaxonomy) (string, error) {
	return e.save(storage.Slug(topic)+"-taxonomy.csv", func(w io.Writer) error {
		return WriteTaxonomy(w, t)
	})
}

func (e *Exporter) Competitors(topic string, competitors []model.CompetitorRecord) (string, error) {
	return e.save(storage.Slug(topic)+"-competitors.csv", func(w io.Writer) error {
		return WriteCompetitors(w, competitors)
	})
}

func (e *Exporter) Product(url string, p model.ProductRecord) (string, error) {
	return e.save(storage.Slug(url)+"-product.csv", func(w io.Writer) error {
		return WriteProduct(w, p)
	})
}

func (e *Exporter) save(name string, write func(io.Writer) error) (string, error) {
	f, err := e.fs.Create(name)
	if err != nil {
		return "", err
	}

	if err := write(f); err != nil {
		f.Close()
		return "", fmt.Errorf("exporting %s: %w", name, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("closing %s: %w", name, err)
	}
	return e.fs.Path(name), nil
}
