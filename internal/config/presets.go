package config

// Presets returns the built-in site profiles. Each call returns fresh values.
func Presets() map[string]SiteConfig {
	return map[string]SiteConfig{
		"carrefour": carrefour(),
		"dia":       dia(),
		"disco":     disco(),
		"jumbo":     jumbo(),
	}
}

// vtexMenuLinks are the category link locators of the VTEX menu app.
func vtexMenuLinks(host string) []string {
	return []string{
		"xpath://div[contains(@class, 'vtex-menu-2-x-submenu')]//a",
		"xpath://div[contains(@class, 'vtex-menu-2-x-menuDropdown')]//a",
		"xpath://ul[contains(@class, 'vtex-menu-2-x-submenuList')]//a",
		"xpath://div[contains(@class, 'submenu')]//a",
		"xpath://*[contains(@class, 'vtex-menu')]//a[contains(@href, '" + host + "')]",
	}
}

func carrefour() SiteConfig {
	return SiteConfig{
		HomeURL:           "https://www.carrefour.com.ar/",
		Domain:            "carrefour.com.ar",
		MenuAction:        "click",
		IgnoredCategories: []string{"ofertas", "destacados", "indumentaria"},
		IgnoredGroups:     []string{"gama de precios"},
		RequireCount:      true,
		ExpandGroups:      true,
		GroupScope:        "container",
		Selectors: map[string][]string{
			"page_ready":       {"body"},
			"overlay_dismiss":  {"button#onetrust-accept-btn-handler"},
			"menu_trigger":     {"xpath://span[text()='Categorías']"},
			"menu_ready":       {"ul.carrefourar-mega-menu-0-x-menuContainer"},
			"category_link":    {"ul.carrefourar-mega-menu-0-x-menuContainer > li a"},
			"filter_container": {".vtex-flex-layout-0-x-flexCol--filterCol"},
			"group_title":      {"div[class*='filterTitle']"},
			"option_panel":     {"xpath:./following::div[contains(@class,'filterTemplateOverflow')]"},
			"show_more":        {"xpath:./following::button[contains(@class,'seeMoreButton')][1]"},
			"option_row":       {"div[class*='filterItem']"},
			"option_label":     {"label"},
			"option_count":     {"span[class*='productCount']"},
			"option_input":     {"input[type='checkbox']"},
		},
	}
}

func dia() SiteConfig {
	return SiteConfig{
		HomeURL:       "https://diaonline.supermercadosdia.com.ar/",
		Domain:        "diaonline.supermercadosdia.com.ar",
		MenuAction:    "click",
		IgnoredGroups: []string{"Gama de Precios", "sellerName"},
		GroupScope:    "page",
		Selectors: map[string][]string{
			"page_ready":       {"body"},
			"menu_trigger":     {"div.diaio-custom-mega-menu-0-x-custom-mega-menu-trigger__button"},
			"category_link":    {"div.diaio-custom-mega-menu-0-x-category-list__container a.diaio-custom-mega-menu-0-x-category-list-item__container"},
			"filter_container": {"div.diaio-search-result-0-x-filter__container"},
			"group_title":      {"span.diaio-search-result-0-x-filterTitleSpan"},
			"option_panel":     {"div.diaio-search-result-0-x-filter__container"},
			"show_more":        {"button.diaio-search-result-0-x-seeMoreButton"},
			"option_row":       {"label.vtex-checkbox__label"},
		},
	}
}

func disco() SiteConfig {
	return SiteConfig{
		HomeURL:    "https://www.disco.com.ar/",
		Domain:     "disco.com.ar",
		MenuAction: "hover",
		GroupScope: "container",
		Selectors: map[string][]string{
			"page_ready":    {"body"},
			"menu_trigger":  {"xpath://div[contains(@class, 'vtex-menu-2-x-styledLinkContent--header-category') and contains(text(), 'Categorías')]"},
			"category_link": vtexMenuLinks("disco.com.ar"),
			"filter_container": {
				"aside[class*='vtex-search-result-3-x-filter__filtersWrapper']",
				"aside[class*='filtersWrapper']",
				"[class*='filter'][class*='Wrapper']",
			},
			"group_title":  {"div.vtex-search-result-3-x-filterTitle", "div[class*='filterTitle']"},
			"option_panel": {"xpath:./ancestor::div[contains(@class, 'filter__container')]"},
			"show_more":    {"xpath:.//div[contains(@class, 'seeMore')]", "xpath:.//button[contains(text(), 'Mostrar')]"},
			"option_row":   {"xpath:.//label[contains(@class, 'vtex-checkbox__label')]"},
		},
	}
}

func jumbo() SiteConfig {
	return SiteConfig{
		HomeURL:    "https://www.jumbo.com.ar/",
		Domain:     "jumbo.com.ar",
		MenuAction: "hover",
		GroupScope: "container",
		Selectors: map[string][]string{
			"page_ready":    {"body"},
			"menu_trigger":  {"xpath://nav[contains(@class, 'menuContainerNav--category-menu')]//div[contains(@class, 'vtex-menu-2-x-styledLinkContent--header-category') and contains(text(), 'CATEGORÍAS')]"},
			"category_link": vtexMenuLinks("jumbo.com.ar"),
			"filter_container": {
				"aside[class*='vtex-search-result-3-x-filter__filtersWrapper']",
				"aside[class*='filtersWrapper']",
				"[class*='filter'][class*='Wrapper']",
			},
			"group_title": {
				"div.vtex-search-result-3-x-filterTitle",
				"div[class*='vtex-search-result-3-x-filterTitle']",
				"[class*='filterTitle']",
			},
			"option_panel": {"xpath:./ancestor::div[contains(@class, 'vtex-search-result-3-x-filter__container')]"},
			"show_more": {
				"xpath:.//div[contains(@class, 'vtex-search-result-3-x-filter__seeMoreButton')]",
				"xpath:.//div[contains(@class, 'seeMoreButton')]",
				"xpath:.//div[contains(@class, 'seeMore')]",
				"xpath:.//button[contains(text(), 'Mostrar')]",
				"xpath:.//div[contains(text(), 'Mostrar')]",
			},
			"option_row": {
				"xpath:.//label[contains(@class, 'vtex-checkbox__label') and contains(@class, 'w-100') and contains(@class, 'c-on-base') and contains(@class, 'pointer')]",
				"xpath:.//label[contains(@class, 'vtex-checkbox__label')]",
				"xpath:.//label[contains(@class, 'checkbox')]",
			},
		},
	}
}
