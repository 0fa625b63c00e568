package demoserver

// PageVersion represents a specific version of a page with its HTML content and headers.
type PageVersion struct {
	HTML        string
	ContentType string
	Headers     map[string]string
	Cookies     []CookieDef
}

// CookieDef defines a cookie to be set.
type CookieDef struct {
	Name     string
	Value    string
	Path     string
	HttpOnly bool
	Secure   bool
	SameSite string // "Strict", "Lax", "None", or ""
}

// PageDefinition holds all versions of a single page. Version 1 carries the
// defects the page exists for; version 2 fixes them.
type PageDefinition struct {
	Path        string
	Description string
	// Engine is the test type the page is meant to exercise.
	Engine   string
	Versions map[int]PageVersion
}

const (
	VersionDefective = 1
	VersionFixed     = 2
)

// GetAllPages returns all fixture page definitions.
func GetAllPages() []PageDefinition {
	return []PageDefinition{
		getHomePage(),
		getAccessibilityPage(),
		getSEOPage(),
		getPerformancePage(),
		getErrorsPage(),
		getHeadersPage(),
	}
}

// ===== HOME PAGE =====
func getHomePage() PageDefinition {
	html := `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="utf-8">
    <title>sitecheck fixtures</title>
    <meta name="description" content="Pages with known defects for checking sitecheck engines by hand.">
    <meta name="viewport" content="width=device-width, initial-scale=1">
</head>
<body>
    <h1>sitecheck fixtures</h1>
    <ul>
        <li><a href="/accessibility">Accessibility defects</a></li>
        <li><a href="/seo">SEO defects</a></li>
        <li><a href="/performance">Performance defects</a></li>
        <li><a href="/errors">Runtime errors</a></li>
        <li><a href="/headers">Missing security headers</a></li>
        <li><a href="/fixtures/control">Version control panel</a></li>
    </ul>
</body>
</html>`
	return PageDefinition{
		Path:        "/",
		Description: "Index linking every fixture; has no defects",
		Engine:      "all",
		Versions:    map[int]PageVersion{VersionDefective: {HTML: html}, VersionFixed: {HTML: html}},
	}
}

// ===== ACCESSIBILITY PAGE =====
func getAccessibilityPage() PageDefinition {
	return PageDefinition{
		Path:        "/accessibility",
		Description: "Missing alt text, unlabeled inputs, an empty button and low contrast",
		Engine:      "accessibility",
		Versions: map[int]PageVersion{
			VersionDefective: {
				HTML: `<!DOCTYPE html>
<html>
<head>
    <title>Accessibility fixture</title>
    <style>.faint { color: #bbbbbb; background: #ffffff; }</style>
</head>
<body>
    <h1>Accessibility fixture</h1>
    <img src="/static/pixel.png">
    <p class="faint">This text fails the contrast ratio.</p>
    <form>
        <input type="text" name="email">
        <button type="submit"></button>
    </form>
    <a href="#"></a>
</body>
</html>`,
			},
			VersionFixed: {
				HTML: `<!DOCTYPE html>
<html lang="en">
<head>
    <title>Accessibility fixture</title>
    <style>.readable { color: #222222; background: #ffffff; }</style>
</head>
<body>
    <main>
        <h1>Accessibility fixture</h1>
        <img src="/static/pixel.png" alt="Single pixel">
        <p class="readable">This text passes the contrast ratio.</p>
        <form>
            <label for="email">Email</label>
            <input type="text" id="email" name="email">
            <button type="submit">Subscribe</button>
        </form>
        <a href="/">Back to index</a>
    </main>
</body>
</html>`,
			},
		},
	}
}

// ===== SEO PAGE =====
func getSEOPage() PageDefinition {
	return PageDefinition{
		Path:        "/seo",
		Description: "No title or meta description, two h1 elements, noindex",
		Engine:      "seo",
		Versions: map[int]PageVersion{
			VersionDefective: {
				HTML: `<!DOCTYPE html>
<html>
<head>
    <meta name="robots" content="noindex">
</head>
<body>
    <h1>SEO fixture</h1>
    <h1>Second heading</h1>
    <a href="javascript:void(0)">click here</a>
</body>
</html>`,
			},
			VersionFixed: {
				HTML: `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="utf-8">
    <title>SEO fixture</title>
    <meta name="description" content="A page with every on-page SEO basic in place.">
    <meta name="viewport" content="width=device-width, initial-scale=1">
    <link rel="canonical" href="/seo">
</head>
<body>
    <h1>SEO fixture</h1>
    <h2>Second heading</h2>
    <a href="/">Back to the fixture index</a>
</body>
</html>`,
			},
		},
	}
}

// ===== PERFORMANCE PAGE =====
func getPerformancePage() PageDefinition {
	return PageDefinition{
		Path:        "/performance",
		Description: "Render-blocking slow script, main-thread busy loop and layout shift",
		Engine:      "performance",
		Versions: map[int]PageVersion{
			VersionDefective: {
				HTML: `<!DOCTYPE html>
<html lang="en">
<head>
    <title>Performance fixture</title>
    <script src="/static/slow.js"></script>
</head>
<body>
    <h1>Performance fixture</h1>
    <div id="banner"></div>
    <p>Content that moves when the banner appears.</p>
    <script>
        var end = Date.now() + 400;
        while (Date.now() < end) {}
        setTimeout(function () {
            document.getElementById('banner').style.height = '300px';
        }, 500);
    </script>
</body>
</html>`,
			},
			VersionFixed: {
				HTML: `<!DOCTYPE html>
<html lang="en">
<head>
    <title>Performance fixture</title>
    <script src="/static/slow.js" defer></script>
</head>
<body>
    <h1>Performance fixture</h1>
    <div id="banner" style="height: 300px"></div>
    <p>Content that stays put.</p>
</body>
</html>`,
			},
		},
	}
}

// ===== RUNTIME ERRORS PAGE =====
func getErrorsPage() PageDefinition {
	return PageDefinition{
		Path:        "/errors",
		Description: "Uncaught exceptions during and after load",
		Engine:      "browser",
		Versions: map[int]PageVersion{
			VersionDefective: {
				HTML: `<!DOCTYPE html>
<html lang="en">
<head>
    <title>Runtime errors fixture</title>
</head>
<body>
    <h1>Runtime errors fixture</h1>
    <script>
        undefinedFunction();
    </script>
    <script>
        window.addEventListener('load', function () {
            null.property;
        });
    </script>
</body>
</html>`,
			},
			VersionFixed: {
				HTML: `<!DOCTYPE html>
<html lang="en">
<head>
    <title>Runtime errors fixture</title>
</head>
<body>
    <h1>Runtime errors fixture</h1>
    <script>
        window.addEventListener('load', function () {
            document.body.dataset.loaded = 'true';
        });
    </script>
</body>
</html>`,
			},
		},
	}
}

// ===== SECURITY HEADERS PAGE =====
func getHeadersPage() PageDefinition {
	html := `<!DOCTYPE html>
<html lang="en">
<head>
    <title>Security headers fixture</title>
</head>
<body>
    <h1>Security headers fixture</h1>
    <p>Inspect the response headers and cookies of this page.</p>
</body>
</html>`
	return PageDefinition{
		Path:        "/headers",
		Description: "No CSP, HSTS or frame protection; session cookie without flags",
		Engine:      "security",
		Versions: map[int]PageVersion{
			VersionDefective: {
				HTML: html,
				Headers: map[string]string{
					"Server":       "Apache/2.2.14",
					"X-Powered-By": "PHP/5.2.17",
				},
				Cookies: []CookieDef{
					{Name: "session", Value: "abc123", Path: "/"},
				},
			},
			VersionFixed: {
				HTML: html,
				Headers: map[string]string{
					"Content-Security-Policy":   "default-src 'self'; frame-ancestors 'none'",
					"Strict-Transport-Security": "max-age=63072000; includeSubDomains",
					"X-Frame-Options":           "DENY",
					"X-Content-Type-Options":    "nosniff",
					"Referrer-Policy":           "strict-origin-when-cross-origin",
				},
				Cookies: []CookieDef{
					{Name: "session", Value: "abc123", Path: "/", HttpOnly: true, Secure: true, SameSite: "Strict"},
				},
			},
		},
	}
}
