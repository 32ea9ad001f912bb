package workloads

import (
	"context"
	"fmt"
	"html/template"

	"github.com/edisonylee/turbocommerce-sub001/pkg/domain"
	"github.com/edisonylee/turbocommerce-sub001/pkg/ports"
)

// ProductPageName is the registry key of the product detail page.
const ProductPageName = "product-page"

// Product is the CMS record of a product.
type Product struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Brand       string      `json:"brand"`
	Category    string      `json:"category"`
	Description string      `json:"description"`
	ImageURL    string      `json:"image_url"`
	Attributes  []Attribute `json:"attributes"`
}

// Attribute is a named product property.
type Attribute struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Pricing is the live price of a product.
type Pricing struct {
	Price         float64  `json:"price"`
	Currency      string   `json:"currency"`
	OriginalPrice *float64 `json:"original_price,omitempty"`
	Discount      int      `json:"discount_percentage,omitempty"`
	MemberPrice   *float64 `json:"member_price,omitempty"`
}

// Format renders an amount in the pricing currency.
func (p Pricing) Format(amount float64) string {
	if p.Currency == "" || p.Currency == "USD" {
		return fmt.Sprintf("$%.2f", amount)
	}
	return fmt.Sprintf("%.2f %s", amount, p.Currency)
}

// Inventory is the stock level of a product.
type Inventory struct {
	InStock   bool   `json:"in_stock"`
	Quantity  int    `json:"quantity"`
	Warehouse string `json:"warehouse"`
	Restock   string `json:"estimated_restock,omitempty"`
}

// Status classifies the stock level.
func (i Inventory) Status() string {
	switch {
	case !i.InStock || i.Quantity == 0:
		return "out"
	case i.Quantity <= 5:
		return "low"
	default:
		return "available"
	}
}

// Review is one customer review.
type Review struct {
	Author   string `json:"author"`
	Rating   int    `json:"rating"`
	Title    string `json:"title"`
	Body     string `json:"body"`
	Verified bool   `json:"verified"`
}

// Recommendation is a related product.
type Recommendation struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Price  float64 `json:"price"`
	Reason string  `json:"reason"`
}

var productTemplates = template.Must(template.New("product").Funcs(template.FuncMap{
	"deref": func(f *float64) float64 { return *f },
}).Parse(`
{{define "hero"}}<div class="product-hero">
<img src="{{.ImageURL}}" alt="{{.Name}}" class="product-image-main">
<div class="product-info">
<p class="product-brand">{{.Brand}}</p>
<h1 class="product-name">{{.Name}}</h1>
<p class="product-category">{{.Category}}</p>
<div class="product-description">{{.Description}}</div>
<ul class="product-attributes">{{range .Attributes}}<li><strong>{{.Name}}:</strong> {{.Value}}</li>{{end}}</ul>
</div>
</div>{{end}}
{{define "pricing"}}<div class="product-pricing">
<span class="price-current">{{.Format .Price}}</span>
{{- if .OriginalPrice}} <span class="price-original">{{.Format (deref .OriginalPrice)}}</span> <span class="price-discount">-{{.Discount}}% OFF</span>{{end}}
{{- if .MemberPrice}}
<div class="member-price">Member Price: {{.Format (deref .MemberPrice)}}</div>{{end}}
</div>{{end}}
{{define "inventory"}}<div class="product-inventory stock-{{.Status}}">
{{- if eq .Status "out"}}
<p class="stock-status">Out of Stock{{if .Restock}} (restock {{.Restock}}){{end}}</p>
<button class="btn-notify-me">Notify me</button>
{{- else}}
<p class="stock-status">{{if eq .Status "low"}}Only {{.Quantity}} left{{else}}In Stock{{end}} ({{.Warehouse}})</p>
<button class="btn-add-to-cart">Add to Cart</button>
{{- end}}
</div>{{end}}
{{define "reviews"}}<div class="product-reviews">
<h2>Customer Reviews ({{len .}})</h2>
{{range .}}<article class="review"><h3>{{.Title}}</h3><p class="review-meta">{{.Author}} rated {{.Rating}}/5{{if .Verified}} · Verified purchase{{end}}</p><p>{{.Body}}</p></article>
{{end}}</div>{{end}}
{{define "recommendations"}}<div class="product-recommendations">
<h2>You may also like</h2>
<ul>{{range .}}<li data-product="{{.ID}}">{{.Name}} <span class="price">${{printf "%.2f" .Price}}</span> <em>{{.Reason}}</em></li>{{end}}</ul>
</div>{{end}}
`))

type productPage struct {
	fetcher ports.Fetcher
}

// NewProductPage returns the product detail page workload. The product id is
// taken from the "id" path parameter and defaults to "1".
func NewProductPage(f ports.Fetcher) ports.Workload {
	return &productPage{fetcher: f}
}

func (p *productPage) Name() string { return ProductPageName }

func (p *productPage) Build(ctx context.Context, rc domain.RequestContext) (domain.Shell, domain.Sections, error) {
	id, ok := rc.Param("id")
	if !ok || id == "" {
		id = "1"
	}

	head := domain.HeadContent{Title: template.HTMLEscapeString(fmt.Sprintf("Product %s | TurboCommerce", id))}.
		WithMeta("viewport", "width=device-width, initial-scale=1").
		WithStyle(productStyles)
	bodyStart := fmt.Sprintf(`<body>
<header class="site-header"><nav><a href="/">Home</a> / Product %s</nav></header>
<main class="pdp-container">
<p class="request-info">Request ID: %s</p>
`, template.HTMLEscapeString(id), rc.ID)
	bodyEnd := `</main>
<footer class="site-footer"><p>Streaming SSR Demo - Product Page</p></footer>
</body>
</html>
`

	shell := domain.NewDocumentShell(head, bodyStart, bodyEnd,
		domain.NewSlot("hero", 0),
		domain.NewSlot("pricing", 1),
		domain.NewSlot("inventory", 2),
		domain.NewSlot("reviews", 3),
		domain.NewSlot("recommendations", 4),
	)

	product := domain.DefaultFetchRequest(domain.TagCMS, "product/"+id)
	pricing := domain.DefaultFetchRequest(domain.TagPricing, id)
	inventory := domain.DefaultFetchRequest(domain.TagInventory, id)
	reviews := domain.DefaultFetchRequest(domain.TagReviews, id)
	recs := domain.DefaultFetchRequest(domain.TagRecommendations, id)

	sections := domain.NewSections(
		domain.NewSection("hero", 0, templated[Product](p.fetcher, product, productTemplates.Lookup("hero")),
			sectionTimeout(product),
			domain.WithPlaceholder(`<div class="product-hero product-hero--loading"><p>Product details are loading…</p></div>`),
		),
		domain.NewSection("pricing", 1, templated[Pricing](p.fetcher, pricing, productTemplates.Lookup("pricing")),
			sectionTimeout(pricing),
			domain.WithPlaceholder(`<div class="product-pricing product-pricing--loading"><span class="price-placeholder">Loading price...</span></div>`),
		),
		domain.NewSection("inventory", 2, templated[Inventory](p.fetcher, inventory, productTemplates.Lookup("inventory")),
			sectionTimeout(inventory),
			domain.WithPlaceholder(`<div class="product-inventory product-inventory--loading"><p>Checking availability…</p></div>`),
		),
		domain.NewSection("reviews", 3, templated[[]Review](p.fetcher, reviews, productTemplates.Lookup("reviews")),
			sectionTimeout(reviews),
			domain.WithSkip(),
		),
		domain.NewSection("recommendations", 4, templated[[]Recommendation](p.fetcher, recs, productTemplates.Lookup("recommendations")),
			sectionTimeout(recs),
			domain.WithSkip(),
		),
	)
	return shell, sections, nil
}

const productStyles = `body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; margin: 0; background: #f5f5f5; }
.site-header, .site-footer { background: #333; color: white; padding: 1rem 2rem; }
.pdp-container { max-width: 1200px; margin: 0 auto; padding: 2rem; }
.product-hero, .product-pricing, .product-inventory, .product-reviews, .product-recommendations { background: white; padding: 1.5rem 2rem; border-radius: 8px; margin-bottom: 1rem; }
.price-current { font-size: 2rem; font-weight: bold; color: #b12704; }
.price-original { text-decoration: line-through; color: #666; }
.section-error { color: #b00020; }`
