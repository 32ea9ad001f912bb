package workloads

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/edisonylee/turbocommerce-sub001/pkg/adapters/memory"
	"github.com/edisonylee/turbocommerce-sub001/pkg/domain"
)

// DemoProducts is the number of products served by DemoFetcher.
const DemoProducts = 5

// Simulated backend latencies of the demo data sources.
var (
	CMSLatency             = 30 * time.Millisecond
	PricingLatency         = 60 * time.Millisecond
	InventoryLatency       = 40 * time.Millisecond
	ReviewsLatency         = 180 * time.Millisecond
	RecommendationsLatency = 250 * time.Millisecond
)

// DemoFetcher returns a memory fetcher seeded with the catalogue of the demo
// workloads. Only product ids 1 through DemoProducts exist; any other id
// exercises the fallbacks.
func DemoFetcher() *memory.Fetcher {
	f := memory.NewFetcher()
	SeedDemo(f)
	return f
}

// SeedDemo registers the demo catalogue with f.
func SeedDemo(f *memory.Fetcher) {
	for id := 1; id <= DemoProducts; id++ {
		SeedProduct(f, id, 0)
	}
	SeedLanding(f, 0)
}

// SeedProduct registers the data of product id. A zero scale uses the
// default latencies; otherwise each latency is multiplied by scale.
func SeedProduct(f *memory.Fetcher, id int, scale float64) {
	key := strconv.Itoa(id)
	price := 99.99 + float64(id)*10
	original := round2(price * 1.2)
	member := round2(price * 0.9)
	quantity := (id * 7) % 100

	set(f, domain.TagCMS, "product/"+key, CMSLatency, scale, Product{
		ID:          key,
		Name:        fmt.Sprintf("Premium Product %d", id),
		Brand:       "TurboBrand",
		Category:    "Electronics",
		Description: "A high-quality product with excellent features and outstanding performance.",
		ImageURL:    fmt.Sprintf("https://picsum.photos/seed/%d/600/600", id),
		Attributes: []Attribute{
			{Name: "Color", Value: "Midnight Black"},
			{Name: "Weight", Value: "1.2 kg"},
			{Name: "Warranty", Value: "2 years"},
		},
	})
	set(f, domain.TagPricing, key, PricingLatency, scale, Pricing{
		Price:         price,
		Currency:      "USD",
		OriginalPrice: &original,
		Discount:      20,
		MemberPrice:   &member,
	})
	set(f, domain.TagInventory, key, InventoryLatency, scale, Inventory{
		InStock:   quantity > 0,
		Quantity:  quantity,
		Warehouse: "US-WEST",
	})
	set(f, domain.TagReviews, key, ReviewsLatency, scale, []Review{
		{Author: "Alex P.", Rating: 5, Title: "Exceeded expectations", Body: "Build quality is superb and it arrived a day early.", Verified: true},
		{Author: "Jordan K.", Rating: 4, Title: "Great value", Body: "Does everything I need. Battery life could be better.", Verified: true},
		{Author: "Sam R.", Rating: 3, Title: "Solid but pricey", Body: "Works well, though I expected more at this price."},
	})

	recs := make([]Recommendation, 0, 3)
	for i := 1; i <= 3; i++ {
		rid := id*10 + i
		recs = append(recs, Recommendation{
			ID:     strconv.Itoa(rid),
			Name:   fmt.Sprintf("Related Product %d", rid),
			Price:  round2(49.99 + float64(i)*15),
			Reason: "Frequently bought together",
		})
	}
	set(f, domain.TagRecommendations, key, RecommendationsLatency, scale, recs)
}

// SeedLanding registers the CMS content of the landing page.
func SeedLanding(f *memory.Fetcher, scale float64) {
	set(f, domain.TagCMS, "landing/hero/"+VariantControl, CMSLatency, scale, Hero{
		Headline:    "Transform Your Business",
		Subheadline: "The all-in-one platform for modern teams",
		CTAText:     "Get Started Free",
		CTAURL:      "/signup",
		Variant:     VariantControl,
	})
	set(f, domain.TagCMS, "landing/hero/"+VariantChallenger, CMSLatency, scale, Hero{
		Headline:    "Scale Without Limits",
		Subheadline: "Join 10,000+ companies growing with us",
		CTAText:     "Start Your Free Trial",
		CTAURL:      "/trial",
		Variant:     VariantChallenger,
	})
	set(f, domain.TagCMS, "landing/features", CMSLatency*2, scale, Features{
		Title:    "Everything you need",
		Subtitle: "Powerful features to help your team succeed",
		Items: []Feature{
			{Icon: "⚡", Title: "Lightning Fast", Description: "Edge-powered performance that scales globally."},
			{Icon: "🔒", Title: "Enterprise Security", Description: "End-to-end encryption and role-based access control."},
			{Icon: "📊", Title: "Real-time Analytics", Description: "Actionable insights with customizable dashboards."},
			{Icon: "🔄", Title: "Seamless Integrations", Description: "Connect with the tools your team already uses."},
		},
	})
	set(f, domain.TagCMS, "landing/testimonials", CMSLatency*3, scale, Testimonials{
		Title: "Trusted by industry leaders",
		Items: []Testimonial{
			{Quote: "We've seen a 40% increase in productivity since switching.", Author: "Sarah Chen", Role: "VP of Engineering", Company: "TechCorp"},
			{Quote: "The ROI was visible within the first month.", Author: "Michael Rodriguez", Role: "CEO", Company: "StartupXYZ"},
		},
	})
	set(f, domain.TagCMS, "landing/cta", CMSLatency, scale, CTA{
		Headline:      "Ready to get started?",
		Subheadline:   "Join thousands of teams already using our platform.",
		PrimaryText:   "Start Free Trial",
		PrimaryURL:    "/signup",
		SecondaryText: "Schedule Demo",
		SecondaryURL:  "/demo",
	})
}

func set(f *memory.Fetcher, tag domain.DependencyTag, key string, latency time.Duration, scale float64, v any) {
	value, err := json.Marshal(v)
	if err != nil {
		panic(fmt.Sprintf("workloads: encode %s/%s: %v", tag, key, err))
	}
	if scale > 0 {
		latency = time.Duration(float64(latency) * scale)
	}
	f.Set(tag, key, memory.Fixture{Value: value, Latency: latency})
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
