package discovery

import (
	"context"
	"errors"
	"testing"

	"taxonomy/scraper/internal/domain"
	"taxonomy/scraper/internal/mock"
	"taxonomy/scraper/internal/page"
	"taxonomy/scraper/internal/page/htmlpage"
	"taxonomy/scraper/internal/selector"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const homeURL = "https://www.shop.example.com/"

const homeHTML = `<html><body>
<header><button class="menu-trigger" data-reveals="nav.menu">Categorías</button></header>
<nav class="menu" hidden>
  <a href="/lacteos">Lácteos</a>
  <a href="https://www.shop.example.com/bebidas">  Bebidas </a>
  <a href="/lacteos#top">Lácteos otra vez</a>
  <a href="/ofertas">Ofertas</a>
  <a href="https://otro.example.org/limpieza">Limpieza</a>
  <a href="#">Inicio</a>
  <a href="/vacio"> </a>
  <a>Sin enlace</a>
  <a href="javascript:void(0)">Menú</a>
  <a href="https://api.shop.example.com/almacen">Almacén</a>
</nav>
</body></html>`

var testSelectors = map[string][]string{
	selector.ConceptMenuTrigger:  {"button.menu-trigger"},
	selector.ConceptCategoryLink: {"ul.mega-menu a", "nav.menu a"},
}

func newDiscoverer(t *testing.T, html string, selectors map[string][]string, opts Options) *Discoverer {
	t.Helper()

	acc := htmlpage.New(map[string]string{homeURL: html})
	require.NoError(t, acc.Navigate(context.Background(), homeURL))

	opts.HomeURL = homeURL
	d, err := New(acc, selector.NewResolver(acc, selector.ParseSet(selectors)), opts, clock.NewMock())
	require.NoError(t, err)
	return d
}

func TestDiscover(t *testing.T) {
	ctx := context.Background()

	t.Run("filters, resolves and deduplicates", func(t *testing.T) {
		d := newDiscoverer(t, homeHTML, testSelectors, Options{
			IgnoredCategories: []string{"ofertas", "destacados"},
		})

		categories, err := d.Discover(ctx)
		require.NoError(t, err)
		assert.Equal(t, []domain.Category{
			{Name: "Lácteos", URL: "https://www.shop.example.com/lacteos"},
			{Name: "Bebidas", URL: "https://www.shop.example.com/bebidas"},
			{Name: "Almacén", URL: "https://api.shop.example.com/almacen"},
		}, categories)
	})

	t.Run("links without a usable name are skipped", func(t *testing.T) {
		html := `<html><body>
<button class="menu-trigger" data-reveals="nav.menu">Menú</button>
<nav class="menu" hidden>
  <a href="/destacados">★</a>
  <a href="/novedades">🔥 !!</a>
  <a href="/lacteos">Lácteos</a>
</nav>
</body></html>`
		d := newDiscoverer(t, html, testSelectors, Options{})

		categories, err := d.Discover(ctx)
		require.NoError(t, err)
		assert.Equal(t, []domain.Category{
			{Name: "Lácteos", URL: "https://www.shop.example.com/lacteos"},
		}, categories)
		for _, c := range categories {
			assert.NotEmpty(t, c.Key())
		}
	})

	t.Run("explicit domain", func(t *testing.T) {
		d := newDiscoverer(t, homeHTML, testSelectors, Options{
			Domain:            "api.shop.example.com",
			IgnoredCategories: []string{"Ofertas"},
		})

		categories, err := d.Discover(ctx)
		require.NoError(t, err)
		assert.Equal(t, []domain.Category{
			{Name: "Almacén", URL: "https://api.shop.example.com/almacen"},
		}, categories)
	})

	t.Run("menu trigger missing", func(t *testing.T) {
		d := newDiscoverer(t, `<html><body><nav class="menu"><a href="/x">X</a></nav></body></html>`, testSelectors, Options{})

		_, err := d.Discover(ctx)
		require.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrDiscovery))
		assert.True(t, errors.Is(err, domain.ErrNavigation))
	})

	t.Run("no category links", func(t *testing.T) {
		d := newDiscoverer(t, `<html><body><button class="menu-trigger">Menú</button></body></html>`, testSelectors, Options{})

		_, err := d.Discover(ctx)
		require.ErrorIs(t, err, domain.ErrDiscovery)
	})
}

func TestOpenMenuAction(t *testing.T) {
	ctx := context.Background()

	for _, action := range []string{MenuActionClick, MenuActionHover} {
		t.Run(action, func(t *testing.T) {
			var clicked, hovered int
			acc := &mock.Accessor{
				FindAllFn: func(context.Context, page.Element, page.Locator) ([]page.Element, error) {
					return []page.Element{"trigger"}, nil
				},
				ClickFn: func(context.Context, page.Element) error {
					clicked++
					return nil
				},
				HoverFn: func(context.Context, page.Element) error {
					hovered++
					return nil
				},
			}

			d, err := New(acc, selector.NewResolver(acc, selector.ParseSet(testSelectors)), Options{
				HomeURL:    homeURL,
				MenuAction: action,
			}, clock.NewMock())
			require.NoError(t, err)

			require.NoError(t, d.OpenMenu(ctx))
			if action == MenuActionHover {
				assert.Equal(t, 1, hovered)
				assert.Zero(t, clicked)
			} else {
				assert.Equal(t, 1, clicked)
				assert.Zero(t, hovered)
			}
		})
	}
}

func TestNewRejectsBadHome(t *testing.T) {
	_, err := New(&mock.Accessor{}, selector.NewResolver(&mock.Accessor{}, nil), Options{HomeURL: "not a url"}, clock.NewMock())
	require.Error(t, err)
}
