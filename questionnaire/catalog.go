// Package questionnaire walks a user through an ordered catalog of questions,
// staging each answer until it is committed or sent back for a redraft.
package questionnaire

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
)

// Category is a named group of questions, asked in order.
type Category struct {
	Name      string   `json:"name"`
	Questions []string `json:"questions"`
}

// Catalog is the ordered list of categories. It is not modified after
// construction.
type Catalog struct {
	categories []Category
}

// NewCatalog copies categories into a catalog after checking that every
// category is named, unique and non-empty. Answers are keyed by question
// text, so questions must be non-blank and unique within their category.
func NewCatalog(categories []Category) (*Catalog, error) {
	if len(categories) == 0 {
		return nil, errors.New("catalog has no categories")
	}
	seen := make(map[string]bool, len(categories))
	copied := make([]Category, len(categories))
	for i, c := range categories {
		name := strings.TrimSpace(c.Name)
		if name == "" {
			return nil, fmt.Errorf("category %d has no name", i)
		}
		if name == ShowAll {
			return nil, fmt.Errorf("category name %q is reserved", name)
		}
		if seen[name] {
			return nil, fmt.Errorf("duplicate category %q", name)
		}
		if len(c.Questions) == 0 {
			return nil, fmt.Errorf("category %q has no questions", name)
		}
		asked := make(map[string]bool, len(c.Questions))
		for j, q := range c.Questions {
			key := strings.TrimSpace(q)
			if key == "" {
				return nil, fmt.Errorf("category %q question %d is blank", name, j)
			}
			if asked[key] {
				return nil, fmt.Errorf("category %q repeats question %q", name, key)
			}
			asked[key] = true
		}
		seen[name] = true
		copied[i] = Category{Name: name, Questions: append([]string(nil), c.Questions...)}
	}
	return &Catalog{categories: copied}, nil
}

// LoadCatalog reads a JSON array of categories from disk.
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var categories []Category
	if err := json.Unmarshal(data, &categories); err != nil {
		return nil, fmt.Errorf("parse catalog %s: %w", path, err)
	}
	return NewCatalog(categories)
}

// DefaultCatalog is the OEM/ODM manufacturer consultation questionnaire.
func DefaultCatalog() *Catalog {
	c, err := NewCatalog([]Category{
		{
			Name: "제품 개발 관련 질문",
			Questions: []string{
				"주름 개선과 수분 공급에 적합한 성분을 추천할 수 있나요?",
				"일본 및 북미 시장 규제를 충족하는 포뮬라 개발 경험이 있나요?",
				"자연 유래 성분 기반의 제품 개발이 가능한지, 비슷한 사례를 공유할 수 있나요?",
			},
		},
		{
			Name: "제품 사용감 및 품질 테스트",
			Questions: []string{
				"산뜻하고 부드러운 발림성을 구현할 수 있는 텍스처 개발이 가능한가요?",
				"주름 개선 테스트 결과를 제공하거나 인증 데이터를 생성할 수 있나요?",
				"내부 소비자 테스트 또는 샘플 평가를 지원할 수 있나요?",
			},
		},
	})
	if err != nil {
		panic(err)
	}
	return c
}

// Categories returns a copy of the categories in order.
func (c *Catalog) Categories() []Category {
	out := make([]Category, len(c.categories))
	for i, cat := range c.categories {
		out[i] = Category{Name: cat.Name, Questions: append([]string(nil), cat.Questions...)}
	}
	return out
}

// Names returns the category names in order.
func (c *Catalog) Names() []string {
	names := make([]string, len(c.categories))
	for i, cat := range c.categories {
		names[i] = cat.Name
	}
	return names
}

// Total is the number of questions across all categories.
func (c *Catalog) Total() int {
	total := 0
	for _, cat := range c.categories {
		total += len(cat.Questions)
	}
	return total
}

// CheckFilter accepts "", ShowAll or a category name.
func (c *Catalog) CheckFilter(filter string) error {
	if filter == "" || filter == ShowAll || c.index(filter) >= 0 {
		return nil
	}
	return fmt.Errorf("%w: %q", ErrUnknownCategory, filter)
}

func (c *Catalog) index(name string) int {
	for i, cat := range c.categories {
		if cat.Name == name {
			return i
		}
	}
	return -1
}
