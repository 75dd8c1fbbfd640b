package validation

var ProductSchema = Schema{
	Name: "product",
	Rules: []Rule{
		{Field: "name", Kind: String, Required: true, Tag: "required", Message: "Name of the product is required and must be a string"},
		{Field: "description", Kind: String, Required: true, Tag: "required", Message: "Description of the product is required and must be a string"},
		{Field: "brand", Kind: String, Required: true, Tag: "required", Message: "Brand of the product is required and must be a string"},
		{Field: "imageUrl", Kind: String, Required: true, Tag: "required", Message: "Image URL of the product is required and must be a string"},
		{Field: "price", Kind: Number, Required: true, Tag: "min=0", Message: "Price of the product is required and must be a non-negative number"},
		{Field: "category", Kind: String, Required: true, Tag: "required", Message: "Category of the product is required and must be a string"},
	},
}

var (
	commentRule = Rule{Field: "comment", Kind: String, Required: true, Tag: "required", Message: "Comment text is required and must be a string"}
	rateRule    = Rule{Field: "rate", Kind: Integer, Tag: "min=1,max=5", Message: "Rate must be an integer between 1 and 5"}
)

// Rate falls back to models.DefaultRate when omitted. productId is only
// compared against the path, so any string is accepted here.
var ReviewSchema = Schema{
	Name: "review",
	Rules: []Rule{
		commentRule,
		rateRule,
		{Field: "productId", Kind: String, Message: "Product ID must be a string"},
	},
}

// ReviewUpdateSchema covers the fields an update may change. A review never
// moves to another product.
var ReviewUpdateSchema = Schema{
	Name:  "review",
	Rules: []Rule{commentRule, rateRule},
}
