package notifications

// Template describes how the delivery worker should render a notification.
type Template struct {
	Slug     string
	Priority string
	Language string
}

// TemplateResolver maps a notification kind to its template.
type TemplateResolver interface {
	Resolve(kind Kind) Template
}

// StaticResolver serves a fixed kind-to-template table. Unknown kinds fall
// back to a template named after the kind itself so messages still carry a
// usable slug.
type StaticResolver struct {
	templates map[Kind]Template
}

// NewStaticResolver returns the default template table.
func NewStaticResolver() *StaticResolver {
	return &StaticResolver{
		templates: map[Kind]Template{
			KindEmailVerification: {Slug: "email_verification", Priority: "normal", Language: "en"},
			KindPasswordReset:     {Slug: "password_reset", Priority: "high", Language: "en"},
			KindPasswordChanged:   {Slug: "password_changed", Priority: "normal", Language: "en"},
		},
	}
}

func (r *StaticResolver) Resolve(kind Kind) Template {
	if t, ok := r.templates[kind]; ok {
		return t
	}
	return Template{Slug: string(kind), Priority: "normal", Language: "en"}
}
