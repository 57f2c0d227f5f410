package market

import "fmt"

// Brand defaults.
const (
	DefaultBrand   = "Langjiayuan"
	DefaultVariety = "Zhanhua winter jujube"
)

// BrandContent is canned promotional copy.
type BrandContent struct {
	Brand               string   `json:"brand"`
	Story               string   `json:"brand_story"`
	ProductDescriptions []string `json:"product_descriptions"`
	SocialMediaPosts    []string `json:"social_media_content"`
}

// BrandStory returns the brand story for brand.
func BrandStory(brand string) string {
	if brand == "" {
		brand = DefaultBrand
	}
	return fmt.Sprintf(`%[1]s grows winter jujubes in Zhanhua, Shandong, in the Yellow River delta, where the fruit has been cultivated for generations.

Our orchards sit on the fertile soil of the lower Yellow River, watered by the river and sheltered by a temperate maritime climate. Every jujube is a gift of nature and carries our commitment to quality.

%[1]s keeps to traditional growing methods and avoids chemical pesticides, so every jujube is a natural, healthy food. We believe only carefully grown fruit delivers the purest crisp sweetness and the richest nutrition.

Choose %[1]s: health and flavour in one.`, brand)
}

// ProductDescriptions returns short descriptions for a product variety.
func ProductDescriptions(variety string) []string {
	if variety == "" {
		variety = DefaultVariety
	}
	return []string{
		fmt.Sprintf("Hand-picked %s, plump, crisp and sweet", variety),
		"Carefully handled the traditional way to keep the natural crunch",
		"Rich in vitamin C, dietary fibre and other nutrients",
		"A healthy snack for young and old alike",
		"Beautifully packed, perfect as a gift or for yourself",
	}
}

// SocialMediaPosts returns ready-made social media posts.
func SocialMediaPosts() []string {
	return []string{
		"🌟 Zhanhua winter jujubes from Shandong: nature's crisp, sweet gift. Every bite tastes of early winter ❄️",
		"💪 A healthy life starts with a good jujube! Rich in vitamin C to support your immune system",
		"🎁 The perfect gift, beautifully packed and full of good wishes",
		"👵 A natural snack loved by grandparents and kids: crisp, sweet, nutritious and easy to digest",
		"🌿 Grown green with no additives, every jujube is a natural healthy choice",
	}
}

// NewBrandContent assembles the story, descriptions and posts.
func NewBrandContent(brand, variety string) BrandContent {
	if brand == "" {
		brand = DefaultBrand
	}
	return BrandContent{
		Brand:               brand,
		Story:               BrandStory(brand),
		ProductDescriptions: ProductDescriptions(variety),
		SocialMediaPosts:    SocialMediaPosts(),
	}
}
