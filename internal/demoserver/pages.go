package demoserver

// CookieDef defines a cookie to be set.
type CookieDef struct {
	Name     string
	Value    string
	Path     string
	HttpOnly bool
	Secure   bool
	SameSite string // "Strict", "Lax", "None", or ""
}

// PageDefinition is a static page of the demo site.
type PageDefinition struct {
	Path        string
	Description string
	HTML        string
	Cookies     []CookieDef
}

// GetAllPages returns all static demo pages.
func GetAllPages() []PageDefinition {
	return []PageDefinition{
		getHomePage(),
		getContactPage(),
	}
}

// ===== HOME PAGE =====
func getHomePage() PageDefinition {
	return PageDefinition{
		Path:        "/",
		Description: "Home page with a search form and item links",
		HTML: `<!DOCTYPE html>
<html>
<head>
    <title>Demo Shop</title>
</head>
<body>
    <h1>Demo Shop</h1>
    <nav>
        <a href="/">Home</a> |
        <a href="/item?id=1&ref=home">First item</a> |
        <a href="/item?id=2&ref=home#reviews">Second item</a> |
        <a href="/account">Account</a> |
        <a href="/contact"><img src="/static/mail.png" alt="Contact"></a>
    </nav>

    <form action="/search" method="post" id="search">
        <input type="text" name="q" value="">
        <select name="sort">
            <option value="price">Price</option>
            <option value="name" selected>Name</option>
        </select>
        <input type="submit" value="Search">
    </form>
</body>
</html>`,
		Cookies: []CookieDef{
			{Name: "theme", Value: "light", Path: "/", SameSite: "Lax"},
		},
	}
}

// ===== CONTACT PAGE =====
func getContactPage() PageDefinition {
	return PageDefinition{
		Path:        "/contact",
		Description: "Contact form posting name and message",
		HTML: `<!DOCTYPE html>
<html>
<head>
    <title>Demo Shop - Contact</title>
</head>
<body>
    <h1>Contact us</h1>
    <form action="/contact" method="post">
        <input type="text" name="name">
        <textarea name="message" rows="4"></textarea>
        <input type="hidden" name="csrf" value="static-token">
        <button type="submit">Send</button>
    </form>
</body>
</html>`,
	}
}
