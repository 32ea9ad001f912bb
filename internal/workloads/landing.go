package workloads

import (
	"context"
	"fmt"
	"html/template"

	"github.com/edisonylee/turbocommerce-sub001/pkg/domain"
	"github.com/edisonylee/turbocommerce-sub001/pkg/ports"
)

// LandingName is the registry key of the marketing landing page.
const LandingName = "landing"

// Experiment variants of the landing hero.
const (
	VariantControl    = "control"
	VariantChallenger = "challenger"
)

// Hero is the CMS banner of the landing page.
type Hero struct {
	Headline    string `json:"headline"`
	Subheadline string `json:"subheadline"`
	CTAText     string `json:"cta_text"`
	CTAURL      string `json:"cta_url"`
	Variant     string `json:"variant"`
}

// Features is the CMS feature grid.
type Features struct {
	Title    string    `json:"section_title"`
	Subtitle string    `json:"section_subtitle"`
	Items    []Feature `json:"features"`
}

// Feature is one block of the feature grid.
type Feature struct {
	Icon        string `json:"icon"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Testimonials is the CMS list of customer quotes.
type Testimonials struct {
	Title string        `json:"section_title"`
	Items []Testimonial `json:"testimonials"`
}

// Testimonial is one customer quote.
type Testimonial struct {
	Quote   string `json:"quote"`
	Author  string `json:"author_name"`
	Role    string `json:"author_title"`
	Company string `json:"company"`
}

// CTA is the closing call to action.
type CTA struct {
	Headline      string `json:"headline"`
	Subheadline   string `json:"subheadline"`
	PrimaryText   string `json:"primary_cta_text"`
	PrimaryURL    string `json:"primary_cta_url"`
	SecondaryText string `json:"secondary_cta_text,omitempty"`
	SecondaryURL  string `json:"secondary_cta_url,omitempty"`
}

var landingTemplates = template.Must(template.New("landing").Parse(`
{{define "hero"}}<div class="hero" data-variant="{{.Variant}}">
<h1>{{.Headline}}</h1>
<p class="hero-sub">{{.Subheadline}}</p>
<a class="btn-primary" href="{{.CTAURL}}">{{.CTAText}}</a>
</div>{{end}}
{{define "features"}}<div class="features">
<h2>{{.Title}}</h2>
<p class="features-sub">{{.Subtitle}}</p>
<div class="feature-grid">{{range .Items}}<div class="feature"><span class="feature-icon">{{.Icon}}</span><h3>{{.Title}}</h3><p>{{.Description}}</p></div>{{end}}</div>
</div>{{end}}
{{define "testimonials"}}<div class="testimonials">
<h2>{{.Title}}</h2>
{{range .Items}}<blockquote><p>{{.Quote}}</p><cite>{{.Author}}, {{.Role}} at {{.Company}}</cite></blockquote>
{{end}}</div>{{end}}
{{define "cta"}}<div class="cta">
<h2>{{.Headline}}</h2>
<p>{{.Subheadline}}</p>
<a class="btn-primary" href="{{.PrimaryURL}}">{{.PrimaryText}}</a>
{{- if .SecondaryText}} <a class="btn-secondary" href="{{.SecondaryURL}}">{{.SecondaryText}}</a>{{end}}
</div>{{end}}
`))

const newsletterForm = `<div class="newsletter">
<h2>Stay in the loop</h2>
<form method="post" action="/newsletter"><input type="email" name="email" placeholder="you@company.com" required><button type="submit">Subscribe</button></form>
</div>`

type landing struct {
	fetcher ports.Fetcher
}

// NewLanding returns the marketing landing page workload. The hero variant is
// chosen by the "variant" query parameter or the "X-Experiment-Variant" header.
func NewLanding(f ports.Fetcher) ports.Workload {
	return &landing{fetcher: f}
}

func (l *landing) Name() string { return LandingName }

func (l *landing) Build(ctx context.Context, rc domain.RequestContext) (domain.Shell, domain.Sections, error) {
	variant := experimentVariant(rc)

	head := domain.HeadContent{Title: "TurboCommerce | Build faster storefronts"}.
		WithMeta("viewport", "width=device-width, initial-scale=1").
		WithMeta("experiment-variant", variant).
		WithStyle(landingStyles)
	bodyStart := fmt.Sprintf("<body>\n<main class=\"landing\" data-request-id=\"%s\">\n", rc.ID)
	bodyEnd := "</main>\n</body>\n</html>\n"

	shell := domain.NewDocumentShell(head, bodyStart, bodyEnd,
		domain.NewSlot("hero", 0),
		domain.NewSlot("features", 1),
		domain.NewSlot("testimonials", 2),
		domain.NewSlot("cta", 3),
		domain.NewSlot("newsletter", 4),
	)

	hero := domain.DefaultFetchRequest(domain.TagCMS, "landing/hero/"+variant)
	features := domain.DefaultFetchRequest(domain.TagCMS, "landing/features")
	testimonials := domain.DefaultFetchRequest(domain.TagCMS, "landing/testimonials")
	cta := domain.DefaultFetchRequest(domain.TagCMS, "landing/cta")

	sections := domain.NewSections(
		domain.NewSection("hero", 0, templated[Hero](l.fetcher, hero, landingTemplates.Lookup("hero")),
			sectionTimeout(hero),
			domain.WithPlaceholder(`<div class="hero"><h1>Build faster storefronts</h1></div>`),
		),
		domain.NewSection("features", 1, templated[Features](l.fetcher, features, landingTemplates.Lookup("features")),
			sectionTimeout(features),
			domain.WithSkip(),
		),
		domain.NewSection("testimonials", 2, templated[Testimonials](l.fetcher, testimonials, landingTemplates.Lookup("testimonials")),
			sectionTimeout(testimonials),
			domain.WithSkip(),
		),
		domain.NewSection("cta", 3, templated[CTA](l.fetcher, cta, landingTemplates.Lookup("cta")),
			sectionTimeout(cta),
			domain.WithPlaceholder(`<div class="cta"><a class="btn-primary" href="/signup">Start Free Trial</a></div>`),
		),
		domain.NewSection("newsletter", 4, domain.RenderFunc(func(context.Context, domain.RequestContext) (domain.Fragment, error) {
			return domain.Fragment(newsletterForm), nil
		})),
	)
	return shell, sections, nil
}

func experimentVariant(rc domain.RequestContext) string {
	v, ok := rc.QueryValue("variant")
	if !ok {
		v, _ = rc.Header("X-Experiment-Variant")
	}
	switch v {
	case "B", VariantChallenger:
		return VariantChallenger
	default:
		return VariantControl
	}
}

const landingStyles = `body { font-family: system-ui, sans-serif; margin: 0; color: #1a1a2e; }
.hero { padding: 6rem 2rem; text-align: center; background: linear-gradient(135deg, #667eea 0%, #764ba2 100%); color: white; }
.features, .testimonials, .cta, .newsletter { max-width: 1100px; margin: 0 auto; padding: 4rem 2rem; }
.feature-grid { display: grid; grid-template-columns: repeat(auto-fit, minmax(280px, 1fr)); gap: 2rem; }
.btn-primary { display: inline-block; padding: 0.75rem 2rem; background: #ff6b6b; color: white; border-radius: 4px; text-decoration: none; }
.section-error { color: #b00020; }`
