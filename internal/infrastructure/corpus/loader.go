package corpus

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/provoco/clauseadvisor/internal/core/domain"
)

// LoaderConfig names the three corpus sources on disk.
type LoaderConfig struct {
	ClauseDir         string
	TagsWorkbookPath  string
	EmissionTablePath string
}

// Load builds the Index. A load failure here is fatal at startup; the corpus
// is never reloaded at request time.
func Load(cfg LoaderConfig) (*Index, error) {
	texts, err := loadClauseTexts(cfg.ClauseDir)
	if err != nil {
		return nil, fmt.Errorf("load clause texts: %w", err)
	}

	tags, err := loadClauseTags(cfg.TagsWorkbookPath)
	if err != nil {
		return nil, fmt.Errorf("load clause tags: %w", err)
	}

	emissions, err := loadEmissionTable(cfg.EmissionTablePath)
	if err != nil {
		return nil, fmt.Errorf("load emission table: %w", err)
	}

	entries := make(map[string]domain.ClauseEntry, len(texts))
	for name, text := range texts {
		entry := domain.ClauseEntry{
			Name:      name,
			Text:      text,
			ClusterID: -1,
		}
		if tag, ok := tags[name]; ok {
			entry.ClusterID = tag.clusterID
			entry.ParentName = tag.parent
			entry.ChildName = tag.child
			entry.DisplayURL = tag.url
		}
		entries[name] = entry
	}

	if len(entries) == 0 {
		return nil, fmt.Errorf("clause dir %s contains no clauses", cfg.ClauseDir)
	}
	return newIndex(entries, emissions), nil
}

func loadClauseTexts(dir string) (map[string]string, error) {
	files, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	texts := make(map[string]string, len(files))
	for _, file := range files {
		if file.IsDir() || !strings.HasSuffix(file.Name(), domain.ClauseFileSuffix) {
			continue
		}
		raw, err := os.ReadFile(filepath.Join(dir, file.Name()))
		if err != nil {
			return nil, err
		}
		name := strings.TrimSuffix(file.Name(), domain.ClauseFileSuffix)
		texts[name] = strings.TrimSpace(string(raw))
	}
	return texts, nil
}

type clauseTag struct {
	clusterID int
	parent    string
	child     string
	url       string
}

// loadClauseTags reads the first sheet of the tags workbook. The header row
// is matched by name so column order in the workbook does not matter.
func loadClauseTags(path string) (map[string]clauseTag, error) {
	workbook, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer workbook.Close()

	sheets := workbook.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook %s has no sheets", path)
	}
	rows, err := workbook.GetRows(sheets[0])
	if err != nil {
		return nil, err
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("workbook %s has no data rows", path)
	}

	columns := headerColumns(rows[0])
	nameCol, ok := columns["name"]
	if !ok {
		return nil, fmt.Errorf("workbook %s is missing a name column", path)
	}

	tags := make(map[string]clauseTag, len(rows)-1)
	for _, row := range rows[1:] {
		name := strings.TrimSuffix(cell(row, nameCol), domain.ClauseFileSuffix)
		if name == "" {
			continue
		}
		tag := clauseTag{clusterID: -1}
		if col, ok := columns["cluster"]; ok {
			if id, err := strconv.Atoi(cell(row, col)); err == nil {
				tag.clusterID = id
			}
		}
		if col, ok := columns["parent"]; ok {
			tag.parent = cell(row, col)
		}
		if col, ok := columns["child"]; ok {
			tag.child = cell(row, col)
		}
		if col, ok := columns["url"]; ok {
			tag.url = cell(row, col)
		}
		tags[name] = tag
	}
	return tags, nil
}

// loadEmissionTable reads the csv reference table mapping clause names to
// emission-source labels. Labels within a cell are separated by semicolons.
func loadEmissionTable(path string) (map[string][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, err
	}
	columns := headerColumns(header)
	nameCol, ok := columns["name"]
	if !ok {
		nameCol = 0
	}
	labelCol, ok := columns["labels"]
	if !ok {
		labelCol = 1
	}

	emissions := make(map[string][]string)
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		name := strings.TrimSuffix(cell(row, nameCol), domain.ClauseFileSuffix)
		if name == "" {
			continue
		}
		labels := splitLabels(cell(row, labelCol))
		if len(labels) > 0 {
			emissions[name] = append(emissions[name], labels...)
		}
	}
	return emissions, nil
}

// headerColumns maps canonical column keys to indices, tolerating header
// variants like "Clause Name" or "combined_labels".
func headerColumns(header []string) map[string]int {
	columns := make(map[string]int, len(header))
	for i, h := range header {
		switch normalizeHeader(h) {
		case "name", "clausename", "filename":
			columns["name"] = i
		case "cluster", "clusterid":
			columns["cluster"] = i
		case "parent", "parentname":
			columns["parent"] = i
		case "child", "childname":
			columns["child"] = i
		case "url", "clauseurl", "displayurl":
			columns["url"] = i
		case "labels", "combinedlabels", "emissionsources":
			columns["labels"] = i
		}
	}
	return columns
}

func normalizeHeader(h string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(h) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func cell(row []string, col int) string {
	if col < 0 || col >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[col])
}

func splitLabels(raw string) []string {
	parts := strings.Split(raw, ";")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
