package resume

// Data 表示一份完整的简历内容，也是唯一被持久化的结构（原样序列化为 JSON）。
type Data struct {
	PersonalInfo PersonalInfo `json:"personalInfo"`
	Summary      string       `json:"summary"`
	Experiences  []Experience `json:"experiences"`
	Education    []Education  `json:"education"`
	Courses      []Course     `json:"courses"`
	Languages    []Language   `json:"languages"`
	Skills       []string     `json:"skills"`
	Style        Style        `json:"style"`
}

// PersonalInfo 是页眉中的个人信息。ProfilePicture 为 data URL。
type PersonalInfo struct {
	Name           string `json:"name"`
	JobTitle       string `json:"jobTitle"`
	Email          string `json:"email"`
	Phone          string `json:"phone"`
	Address        string `json:"address"`
	Age            string `json:"age"`
	MaritalStatus  string `json:"maritalStatus"`
	CNH            string `json:"cnh"`
	ProfilePicture string `json:"profilePicture"`
}

// Experience 的描述字段可以跨页拆分，头部（职位/公司/日期）不可拆分。
type Experience struct {
	ID          string `json:"id"`
	JobTitle    string `json:"jobTitle"`
	Company     string `json:"company"`
	Location    string `json:"location"`
	StartDate   string `json:"startDate"`
	EndDate     string `json:"endDate"`
	Description string `json:"description"`
}

type Education struct {
	ID          string `json:"id"`
	Degree      string `json:"degree"`
	Institution string `json:"institution"`
	StartDate   string `json:"startDate"`
	EndDate     string `json:"endDate"`
}

type Course struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Institution    string `json:"institution"`
	CompletionDate string `json:"completionDate"`
}

type Language struct {
	ID          string `json:"id"`
	Language    string `json:"language"`
	Proficiency string `json:"proficiency"`
}

// Template 是可选的版式预设。
type Template string

const (
	TemplateModern     Template = "template-modern"
	TemplateClassic    Template = "template-classic"
	TemplateMinimalist Template = "template-minimalist"
)

// Valid 判断模板是否为已知预设。
func (t Template) Valid() bool {
	switch t {
	case TemplateModern, TemplateClassic, TemplateMinimalist:
		return true
	}
	return false
}

// Style 描述版式选择。
type Style struct {
	Template   Template `json:"template"`
	Color      string   `json:"color"`
	ShowQRCode bool     `json:"showQRCode"`
}

// 表单中的可选项。
var (
	MaritalStatusOptions = []string{"Solteiro(a)", "Casado(a)", "Divorciado(a)", "Viúvo(a)"}
	CNHOptions           = []string{"Não possuo", "A", "B", "A+B", "C", "D", "E"}
	ProficiencyLevels    = []string{"Básico", "Intermediário", "Avançado", "Fluente"}
)

// NoCNH 表示没有驾照，渲染时不显示。
const NoCNH = "Não possuo"
