package dataset

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tirkarthi/mmf/pkg/core"
)

// FileDataset loads samples from a JSON array or JSONL file into memory and
// serves them by index.
type FileDataset struct {
	Path     string
	NameHint string

	samples []core.Sample
}

// NewFileDataset reads the file eagerly so that Len and Get never touch disk
// on the training path.
func NewFileDataset(path string) (*FileDataset, error) {
	d := &FileDataset{Path: path}
	if err := d.load(); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *FileDataset) Name() string {
	if d.NameHint != "" {
		return d.NameHint
	}
	return filepath.Base(d.Path)
}

func (d *FileDataset) Len() int {
	return len(d.samples)
}

func (d *FileDataset) Get(i int) (core.Sample, error) {
	if i < 0 || i >= len(d.samples) {
		return core.Sample{}, fmt.Errorf("dataset: index %d out of range for %q (len %d)", i, d.Name(), len(d.samples))
	}
	return d.samples[i], nil
}

func (d *FileDataset) load() error {
	format, err := detectFormat(d.Path)
	if err != nil {
		return err
	}

	switch format {
	case "json":
		d.samples, err = loadJSONSamples(d.Path)
	case "jsonl":
		d.samples, err = loadJSONLSamples(d.Path)
	default:
		err = errors.New("dataset: unsupported format")
	}
	return err
}

func detectFormat(path string) (string, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".jsonl":
		return "jsonl", nil
	case ".json":
		return "json", nil
	}

	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	reader := bufio.NewReader(file)
	for {
		b, err := reader.ReadByte()
		if err != nil {
			return "", err
		}
		if strings.TrimSpace(string(b)) == "" {
			continue
		}
		if b == '[' {
			return "json", nil
		}
		if b == '{' {
			return "jsonl", nil
		}
		return "", errors.New("dataset: unsupported format")
	}
}

func loadJSONSamples(path string) ([]core.Sample, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var samples []core.Sample
	decoder := json.NewDecoder(file)
	if err := decoder.Decode(&samples); err != nil {
		return nil, err
	}
	return samples, nil
}

func loadJSONLSamples(path string) ([]core.Sample, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	buf := make([]byte, 0, 1024*1024)
	scanner.Buffer(buf, 1024*1024)

	var samples []core.Sample
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(strings.TrimSpace(string(line))) == 0 {
			continue
		}
		var sample core.Sample
		if err := json.Unmarshal(line, &sample); err != nil {
			return nil, err
		}
		samples = append(samples, sample)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return samples, nil
}
