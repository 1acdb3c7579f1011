package service

import (
	"strings"

	"survai/internal/config"
)

// GeneratorProfile holds the realism constants behind synthetic data.
// Department keys are matched case-insensitively.
type GeneratorProfile struct {
	FirstNames  []string
	LastNames   []string
	Departments []string
	EmailDomain string

	// ScaleWeights are sample arrays per lowercased department; DefaultScaleWeights covers the rest
	ScaleWeights        map[string][]int
	DefaultScaleWeights []int

	Substitutions []Substitution

	PositivePool       map[string][]string
	ImprovementPool    map[string][]string
	ChallengePool      []string
	GeneralPool        []string
	FallbackDepartment string
}

// Substitution swaps a formal phrase for one of its casual alternatives
type Substitution struct {
	Phrase       string
	Alternatives []string
}

// DefaultGeneratorProfile returns the built-in TechCorp profile
func DefaultGeneratorProfile() GeneratorProfile {
	return GeneratorProfile{
		FirstNames: []string{"Alex", "Sarah", "Mike", "Lisa", "David", "Emma", "Chris", "Taylor",
			"Jordan", "Ashley", "Marcus", "Sofia", "Ryan", "Kate", "Nathan"},
		LastNames: []string{"Johnson", "Smith", "Davis", "Wilson", "Brown", "Miller", "Garcia",
			"Rodriguez", "Martinez", "Anderson", "Thompson", "White", "Lee"},
		Departments: []string{"Engineering", "Marketing", "Sales", "Operations", "Customer Success"},
		EmailDomain: "techcorp.com",
		ScaleWeights: map[string][]int{
			"engineering":      {6, 6, 7, 7, 7, 8, 8, 5, 6, 7},
			"marketing":        {7, 8, 8, 8, 9, 9, 6, 7, 8, 8},
			"sales":            {5, 6, 6, 7, 7, 8, 4, 5, 6, 7},
			"operations":       {6, 7, 7, 8, 8, 8, 9, 5, 6, 7},
			"customer success": {8, 8, 9, 9, 9, 10, 7, 8, 9, 10},
		},
		DefaultScaleWeights: []int{6, 7, 7, 8, 8, 8, 9, 5, 6, 7},
		Substitutions: []Substitution{
			{"really good", []string{"pretty good", "really solid", "quite nice"}},
			{"very", []string{"super", "really", "pretty"}},
			{"I think", []string{"I feel like", "In my opinion", "Honestly"}},
			{"we need", []string{"we could use", "we should get", "we definitely need"}},
		},
		PositivePool: map[string][]string{
			"engineering": {
				"I really enjoy the technical challenges and working with modern tools.",
				"The code review process here is solid and I learn a lot from the team.",
				"Love that we get to work on interesting problems and have good autonomy.",
				"The dev environment is pretty good and the team is supportive.",
			},
			"marketing": {
				"I like the creative freedom we have in campaigns and the collaborative environment.",
				"The brand work is interesting and we get to try new approaches.",
				"Great team dynamics and I enjoy the variety in projects.",
				"Love working on campaigns that actually make an impact.",
			},
			"sales": {
				"The team support is excellent and I appreciate the clear targets.",
				"Good commission structure and the leads quality has improved.",
				"I enjoy building relationships with clients and the product sells itself.",
				"The sales tools we have are pretty solid and training is helpful.",
			},
			"operations": {
				"I like that we can actually improve processes and see results.",
				"Good collaboration between teams and clear workflows.",
				"The systems work well most of the time and we have good visibility.",
				"Enjoy problem-solving and the variety of challenges we handle.",
			},
			"customer success": {
				"Love helping customers succeed and seeing their positive feedback.",
				"The team is supportive and we have good tools for customer management.",
				"Enjoy the relationship building and problem-solving aspects.",
				"It's rewarding when we can really help customers achieve their goals.",
			},
		},
		ImprovementPool: map[string][]string{
			"engineering": {
				"Better testing infrastructure and maybe faster CI/CD pipelines.",
				"Could use more time for technical debt and documentation.",
				"More efficient meetings and clearer product requirements would help.",
				"Better development tools and maybe more flexible work arrangements.",
			},
			"marketing": {
				"More budget for creative tools and better collaboration with sales.",
				"Clearer brand guidelines and more time for strategic planning.",
				"Better analytics tools and more resources for content creation.",
				"More flexibility in campaign approaches and faster approval processes.",
			},
			"sales": {
				"Better lead quality and more efficient CRM processes.",
				"More product training and clearer commission structures.",
				"Better sales tools and more support for complex deals.",
				"More realistic targets and better territory planning.",
			},
			"operations": {
				"More automation in routine processes and better system integration.",
				"Clearer communication between departments and faster decision making.",
				"Better tools for process monitoring and more resources for improvements.",
				"More efficient workflows and better documentation of procedures.",
			},
			"customer success": {
				"Better integration between support tools and more proactive processes.",
				"More time for strategic customer work rather than just firefighting.",
				"Better customer data and more resources for relationship building.",
				"More efficient escalation processes and better product training.",
			},
		},
		ChallengePool: []string{
			"Managing multiple priorities can be tough sometimes.",
			"Communication between teams could be smoother.",
			"Balancing quality with speed is always a challenge.",
			"Keeping up with changing requirements takes effort.",
			"Resource constraints mean we have to prioritize carefully.",
		},
		GeneralPool: []string{
			"It depends on the specific situation, but overall things are going well.",
			"There are definitely both positives and areas for improvement.",
			"I think we're on the right track but there's always room to grow.",
			"Overall satisfied but there are some things that could be better.",
			"It's a mixed bag - some things work great, others need work.",
		},
		FallbackDepartment: "engineering",
	}
}

// WithOverrides replaces every field the realism profile sets
func (p GeneratorProfile) WithOverrides(o *config.RealismProfile) GeneratorProfile {
	if o == nil {
		return p
	}
	if len(o.FirstNames) > 0 {
		p.FirstNames = o.FirstNames
	}
	if len(o.LastNames) > 0 {
		p.LastNames = o.LastNames
	}
	if len(o.Departments) > 0 {
		p.Departments = o.Departments
	}
	if o.EmailDomain != "" {
		p.EmailDomain = o.EmailDomain
	}
	if len(o.ScaleWeights) > 0 {
		weights := make(map[string][]int, len(p.ScaleWeights)+len(o.ScaleWeights))
		for k, v := range p.ScaleWeights {
			weights[k] = v
		}
		for k, v := range o.ScaleWeights {
			if len(v) == 0 {
				continue
			}
			if strings.EqualFold(k, "default") {
				p.DefaultScaleWeights = v
				continue
			}
			weights[strings.ToLower(k)] = v
		}
		p.ScaleWeights = weights
	}
	return p
}

func (p GeneratorProfile) scaleWeights(department string) []int {
	if w, ok := p.ScaleWeights[strings.ToLower(department)]; ok && len(w) > 0 {
		return w
	}
	return p.DefaultScaleWeights
}

// departmentPool picks the department's pool, else the fallback department's
func (p GeneratorProfile) departmentPool(pools map[string][]string, department string) []string {
	if pool, ok := pools[strings.ToLower(department)]; ok && len(pool) > 0 {
		return pool
	}
	return pools[strings.ToLower(p.FallbackDepartment)]
}
