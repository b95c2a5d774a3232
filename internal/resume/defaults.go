package resume

import "github.com/google/uuid"

// DefaultColor 是默认的主题色。
const DefaultColor = "#002e9e"

// DefaultStyle 返回默认版式。
func DefaultStyle() Style {
	return Style{Template: TemplateModern, Color: DefaultColor, ShowQRCode: true}
}

// NewItemID 生成一个稳定的条目 ID。
func NewItemID() string {
	return uuid.NewString()
}

// New 返回一份空简历：每个条目列表都带一个空占位条目，保证表单总有可编辑的内容。
func New() Data {
	return Data{
		Experiences: []Experience{{ID: NewItemID()}},
		Education:   []Education{{ID: NewItemID()}},
		Courses:     []Course{{ID: NewItemID()}},
		Languages:   []Language{{ID: NewItemID()}},
		Skills:      []string{},
		Style:       DefaultStyle(),
	}
}

const demoAvatar = "data:image/svg+xml;base64,PHN2ZyB4bWxucz0iaHR0cDovL3d3dy53My5vcmcvMjAwMC9zdmciIHdpZHRoPSIxMDAiIGhlaWdodD0iMTAwIiB2aWV3Qm94PSIwIDAgMjQgMjQiIGZpbGw9IiM5Q0EzQUYiIGNsYXNzPSJ3LWZ1bGwgaC1mdWxsIHBhZGRpbmciPjxwYXRoIGQ9Ik0xMiAxMmMyLjIxIDAgNC0xLjc5IDQtNHMtMS43OS00LTQtNC00IDEuNzktNCA0IDEuNzkgNCA0IDR6bTAgMmMtMi42NyAwLTggMS4zNC04IDR2MmgxNnYtMmMwLTIuNjYtNS4zMy00LTgtNHoiLz48L3N2Zz4="

// Demo 返回演示模式下展示的示例简历。
func Demo() Data {
	return Data{
		PersonalInfo: PersonalInfo{
			Name:           "Ana Maria Silva",
			JobTitle:       "Desenvolvedora Front-End",
			Email:          "ana.silva@email.com",
			Phone:          "(11) 98765-4321",
			Address:        "São Paulo, SP",
			ProfilePicture: demoAvatar,
		},
		Summary: "Desenvolvedora front-end proativa com 3+ anos de experiência na criação de interfaces de usuário responsivas e performáticas com React e Vue.js. " +
			"Apaixonada por design limpo e em busca de novos desafios para aplicar minhas habilidades em UI/UX. " +
			"Histórico comprovado na otimização de performance, resultando em melhorias significativas no Core Web Vitals e na satisfação do cliente. " +
			"Proficiente em metodologias ágeis e ferramentas de versionamento como Git.",
		Experiences: []Experience{
			{
				ID:        "1",
				JobTitle:  "Desenvolvedora Front-End Pleno",
				Company:   "Tech Solutions",
				Location:  "São Paulo, SP",
				StartDate: "Jan 2022",
				EndDate:   "Atual",
				Description: "Liderança no desenvolvimento do novo portal do cliente usando React, resultando em um aumento de 25% na retenção de usuários. " +
					"Otimização de performance (Core Web Vitals) e mentoria de desenvolvedores júnior. " +
					"Colaboração com equipes de UI/UX para garantir a fidelidade do design e a melhor experiência do usuário. " +
					"Implementação de testes unitários e de integração para garantir a qualidade e a estabilidade do código.",
			},
			{
				ID:          "2",
				JobTitle:    "Desenvolvedora Front-End Júnior",
				Company:     "Web Agil",
				Location:    "Remoto",
				StartDate:   "Mar 2020",
				EndDate:     "Dez 2021",
				Description: "Desenvolvimento e manutenção de landing pages e e-commerces em Vue.js, garantindo total responsividade e acessibilidade (WCAG).",
			},
		},
		Education: []Education{
			{ID: "1", Degree: "Análise e Desenvolvimento de Sistemas", Institution: "Universidade Estácio de Sá", StartDate: "2018", EndDate: "2020"},
		},
		Courses: []Course{
			{ID: "1", Name: "React Avançado", Institution: "Udemy", CompletionDate: "2023"},
			{ID: "2", Name: "UI/UX Design Principles", Institution: "Coursera", CompletionDate: "2022"},
		},
		Languages: []Language{
			{ID: "1", Language: "Português", Proficiency: "Fluente"},
			{ID: "2", Language: "Inglês", Proficiency: "Avançado"},
		},
		Skills: []string{"React", "JavaScript (ES6+)", "TypeScript", "Vue.js", "Tailwind CSS", "Metodologias Ágeis"},
		Style:  DefaultStyle(),
	}
}

// DemoPersonalInfo 是演示模式下替换个人信息时使用的占位内容。
func DemoPersonalInfo() PersonalInfo {
	return Demo().PersonalInfo
}
