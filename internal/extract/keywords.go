package extract

// Landmark keyword lists used by the section classifier. Matching is
// case-insensitive substring matching against heading or text-node values;
// the lists are deliberately multilingual (English + Russian) and can be
// overridden via Config without changing the algorithm shape.
var (
	// DefaultServiceKeywords marks h2/h3 headings that open a services block.
	DefaultServiceKeywords = []string{"service", "услуги", "сервисы"}

	// DefaultTestimonialKeywords marks text nodes whose parent element is
	// treated as a testimonial block.
	DefaultTestimonialKeywords = []string{"отзывы", "testimonial", "feedback", "клиенты о нас"}

	// DefaultContactKeywords marks h2/h3/h4 headings that open a contact block.
	DefaultContactKeywords = []string{"контакт", "contact", "связаться", "заявка"}
)

// Structural look-ahead limits. Sibling limits count the element siblings
// examined after a matched heading, before empty texts are skipped.
const (
	heroSiblingLimit  = 3
	blockSiblingLimit = 6
	testimonialLimit  = 10
)
