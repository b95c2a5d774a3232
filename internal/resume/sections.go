package resume

import "fmt"

// Section 是页面主体中可分页的区块种类，封闭枚举。
type Section int

const (
	SectionSummary Section = iota + 1
	SectionExperiences
	SectionEducation
	SectionCourses
	SectionLanguages
	SectionSkills
)

// Layout 描述一个区块被拆成测量块的方式。
type Layout int

const (
	// LayoutText: 标题块 + 一个可拆分的正文块。
	LayoutText Layout = iota + 1
	// LayoutHeaderText: 标题块 + 每个条目一个原子头部块和一个可拆分描述块。
	LayoutHeaderText
	// LayoutItems: 标题块 + 每个条目一个原子块。
	LayoutItems
	// LayoutWhole: 整个区块一个原子块。
	LayoutWhole
)

// SectionSpec 是区块的静态属性。
type SectionSpec struct {
	Section    Section
	Key        string
	Title      string
	Splittable bool
	Layout     Layout
}

// Sections 按显示顺序列出所有区块。
var Sections = []SectionSpec{
	{Section: SectionSummary, Key: "summary", Title: "Resumo Profissional", Splittable: true, Layout: LayoutText},
	{Section: SectionExperiences, Key: "experiences", Title: "Experiência Profissional", Splittable: true, Layout: LayoutHeaderText},
	{Section: SectionEducation, Key: "education", Title: "Formação Acadêmica", Layout: LayoutItems},
	{Section: SectionCourses, Key: "courses", Title: "Cursos Complementares", Layout: LayoutItems},
	{Section: SectionLanguages, Key: "languages", Title: "Idiomas", Layout: LayoutItems},
	{Section: SectionSkills, Key: "skills", Title: "Habilidades", Layout: LayoutWhole},
}

// Spec 返回区块的静态属性。
func (s Section) Spec() SectionSpec {
	for _, spec := range Sections {
		if spec.Section == s {
			return spec
		}
	}
	return SectionSpec{}
}

// String 返回区块在 JSON 中使用的键。
func (s Section) String() string {
	return s.Spec().Key
}

// ParseSection 将键解析为区块。
func ParseSection(key string) (Section, error) {
	for _, spec := range Sections {
		if spec.Key == key {
			return spec.Section, nil
		}
	}
	return 0, fmt.Errorf("unknown section %q", key)
}

// MarshalText 让 Section 可以作为 JSON map 的键。
func (s Section) MarshalText() ([]byte, error) {
	key := s.String()
	if key == "" {
		return nil, fmt.Errorf("invalid section %d", int(s))
	}
	return []byte(key), nil
}

// UnmarshalText 是 MarshalText 的逆操作。
func (s *Section) UnmarshalText(text []byte) error {
	parsed, err := ParseSection(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// HasContent 判断区块在数据中是否非空。
func (d *Data) HasContent(s Section) bool {
	switch s {
	case SectionSummary:
		return d.Summary != ""
	case SectionExperiences:
		return len(d.Experiences) > 0
	case SectionEducation:
		return len(d.Education) > 0
	case SectionCourses:
		return len(d.Courses) > 0
	case SectionLanguages:
		return len(d.Languages) > 0
	case SectionSkills:
		return len(d.Skills) > 0
	}
	return false
}

// ItemIDs 返回区块内条目的 ID，按显示顺序。
func (d *Data) ItemIDs(s Section) []string {
	var ids []string
	switch s {
	case SectionExperiences:
		for _, it := range d.Experiences {
			ids = append(ids, it.ID)
		}
	case SectionEducation:
		for _, it := range d.Education {
			ids = append(ids, it.ID)
		}
	case SectionCourses:
		for _, it := range d.Courses {
			ids = append(ids, it.ID)
		}
	case SectionLanguages:
		for _, it := range d.Languages {
			ids = append(ids, it.ID)
		}
	}
	return ids
}
