package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"imovelmap/internal/cluster"
	"imovelmap/internal/favorites"
	"imovelmap/internal/listings"
	"imovelmap/internal/mapengine"
	"imovelmap/internal/overlay"
	"imovelmap/internal/requestcache"
	"imovelmap/pkg/database"
	"imovelmap/pkg/models"
	"imovelmap/pkg/utils"
)

type tokenData struct {
	Token string `json:"token"`
}

type authResponse struct {
	Token string `json:"token"`
}

func main() {
	cfg := utils.LoadClientConfig()
	global := flag.NewFlagSet("imovelmap", flag.ExitOnError)
	baseURL := global.String("api", cfg.APIBaseURL, "API base URL")
	tokenPath := global.String("token", defaultTokenPath(), "token file path")
	if err := global.Parse(os.Args[1:]); err != nil {
		log.Fatalf("parse flags: %v", err)
	}
	args := global.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	ctx := context.Background()
	cmd := args[0]
	sub := ""
	if len(args) > 1 {
		sub = args[1]
	}

	client := &http.Client{Timeout: 15 * time.Second}

	switch cmd {
	case "auth":
		handleAuth(ctx, client, *baseURL, *tokenPath, sub, args[2:])
	case "imoveis":
		handleImoveis(ctx, *baseURL, sub, args[2:])
	case "fav":
		handleFav(ctx, *baseURL, *tokenPath, sub, args[2:])
	case "mapa":
		handleMapa(ctx, *baseURL, *tokenPath, sub, args[2:])
	default:
		printUsage()
		os.Exit(1)
	}
}

func handleAuth(ctx context.Context, client *http.Client, baseURL, tokenPath, sub string, args []string) {
	switch sub {
	case "login":
		fs := flag.NewFlagSet("auth login", flag.ExitOnError)
		email := fs.String("email", "", "email address")
		password := fs.String("password", "", "password")
		_ = fs.Parse(args)

		if *email == "" || *password == "" {
			log.Fatal("email and password are required")
		}

		payload := map[string]string{"email": *email, "password": *password}
		var resp authResponse
		if err := doJSON(ctx, client, http.MethodPost, baseURL+"/usuarios/login", "", payload, &resp); err != nil {
			log.Fatalf("login failed: %v", err)
		}
		if err := saveToken(tokenPath, resp.Token); err != nil {
			log.Fatalf("save token: %v", err)
		}
		fmt.Println("logged in")
	case "register":
		fs := flag.NewFlagSet("auth register", flag.ExitOnError)
		nome := fs.String("nome", "", "display name")
		email := fs.String("email", "", "email address")
		password := fs.String("password", "", "password")
		_ = fs.Parse(args)

		if *nome == "" || *email == "" || *password == "" {
			log.Fatal("nome, email, and password are required")
		}

		payload := map[string]string{"nome": *nome, "email": *email, "password": *password}
		var resp authResponse
		if err := doJSON(ctx, client, http.MethodPost, baseURL+"/usuarios/registrar", "", payload, &resp); err != nil {
			log.Fatalf("register failed: %v", err)
		}
		if err := saveToken(tokenPath, resp.Token); err != nil {
			log.Fatalf("save token: %v", err)
		}
		fmt.Println("registered and logged in")
	case "logout":
		if err := clearToken(tokenPath); err != nil {
			log.Fatalf("logout failed: %v", err)
		}
		fmt.Println("logged out")
	default:
		log.Fatal("usage: imovelmap auth <login|register|logout>")
	}
}

func filterFlags(fs *flag.FlagSet) func() models.ListingFilters {
	estado := fs.String("estado", "", "state filter")
	cidade := fs.String("cidade", "", "city filter")
	bairro := fs.String("bairro", "", "neighborhood filter")
	tipo := fs.String("tipo", "", "property type filter")
	valorMin := fs.Float64("valor-min", 0, "minimum price")
	valorMax := fs.Float64("valor-max", 0, "maximum price")
	descontoMin := fs.Float64("desconto-min", 0, "minimum discount percent")
	return func() models.ListingFilters {
		return models.ListingFilters{
			Estado:      *estado,
			Cidade:      *cidade,
			Bairro:      *bairro,
			TipoImovel:  *tipo,
			ValorMin:    *valorMin,
			ValorMax:    *valorMax,
			DescontoMin: *descontoMin,
		}
	}
}

func handleImoveis(ctx context.Context, baseURL, sub string, args []string) {
	cache := requestcache.New(requestcache.DefaultTTL)
	lc := listings.NewClient(baseURL, cache)

	switch sub {
	case "search":
		fs := flag.NewFlagSet("imoveis search", flag.ExitOnError)
		filters := filterFlags(fs)
		page := fs.Int("page", 1, "page number")
		pageSize := fs.Int("page-size", 20, "page size")
		_ = fs.Parse(args)

		resp, err := lc.FetchPage(ctx, filters(), *page, *pageSize)
		if err != nil {
			log.Fatalf("search failed: %v", err)
		}
		printJSON(resp)
	case "show":
		fs := flag.NewFlagSet("imoveis show", flag.ExitOnError)
		codigo := fs.String("codigo", "", "listing code")
		_ = fs.Parse(args)
		if *codigo == "" {
			log.Fatal("codigo is required")
		}

		l, err := lc.FetchListing(ctx, *codigo)
		if err != nil {
			log.Fatalf("show failed: %v", err)
		}
		printJSON(l)
	case "estados":
		out, err := lc.Estados(ctx)
		if err != nil {
			log.Fatalf("estados failed: %v", err)
		}
		printJSON(out)
	case "cidades":
		fs := flag.NewFlagSet("imoveis cidades", flag.ExitOnError)
		estado := fs.String("estado", "", "state")
		_ = fs.Parse(args)
		if *estado == "" {
			log.Fatal("estado is required")
		}
		out, err := lc.Cidades(ctx, *estado)
		if err != nil {
			log.Fatalf("cidades failed: %v", err)
		}
		printJSON(out)
	default:
		log.Fatal("usage: imovelmap imoveis <search|show|estados|cidades>")
	}
}

func handleFav(ctx context.Context, baseURL, tokenPath, sub string, args []string) {
	sync := buildSynchronizer(baseURL, tokenPath)

	switch sub {
	case "list":
		if err := sync.Load(ctx); err != nil {
			log.Fatalf("load favorites failed: %v", err)
		}
		printJSON(sync.Registry.Codes())
	case "toggle":
		fs := flag.NewFlagSet("fav toggle", flag.ExitOnError)
		codigo := fs.String("codigo", "", "listing code")
		_ = fs.Parse(args)
		if *codigo == "" {
			log.Fatal("codigo is required")
		}

		if err := sync.Load(ctx); err != nil {
			log.Fatalf("load favorites failed: %v", err)
		}

		var known *models.Listing
		if !sync.IsFavorite(*codigo) {
			cache := requestcache.New(requestcache.DefaultTTL)
			l, err := listings.NewClient(baseURL, cache).FetchListing(ctx, *codigo)
			if err != nil {
				log.Fatalf("fetch listing failed: %v", err)
			}
			known = &l
		}

		action, err := sync.Toggle(ctx, *codigo, known)
		if err != nil {
			log.Fatalf("toggle failed: %v", err)
		}
		fmt.Printf("%s: %s\n", *codigo, action)
	default:
		log.Fatal("usage: imovelmap fav <list|toggle>")
	}
}

// handleMapa runs the full map pipeline headless: fetch the filtered set,
// release batches on simulated idle events and print what each render pass
// would draw.
func handleMapa(ctx context.Context, baseURL, tokenPath, sub string, args []string) {
	if sub != "simulate" {
		log.Fatal("usage: imovelmap mapa simulate")
	}

	fs := flag.NewFlagSet("mapa simulate", flag.ExitOnError)
	filters := filterFlags(fs)
	zoom := fs.Float64("zoom", 12, "zoom level")
	width := fs.Float64("width", 1280, "surface width in px")
	height := fs.Float64("height", 800, "surface height in px")
	open := fs.String("open", "", "open the detail overlay for this code after loading")
	_ = fs.Parse(args)

	cache := requestcache.New(requestcache.DefaultTTL)
	lc := listings.NewClient(baseURL, cache)
	sync := buildSynchronizer(baseURL, tokenPath)
	if err := sync.Load(ctx); err != nil {
		log.Printf("favorites unavailable: %v", err)
	}

	engine := mapengine.New(mapengine.Config{
		Source:    lc,
		Clusters:  cluster.NewManager(cluster.DefaultRadius, cluster.DefaultMaxZoom),
		Overlay:   overlay.NewManager(consoleSurface{}, sync.Registry),
		Favorites: sync,
		Renderer:  &consoleRenderer{},
		Notify:    func(msg string) { log.Printf("[aviso] %s", msg) },
	})

	// Bounds come from the filtered set itself; a real map provider would
	// report its own.
	set, err := lc.FetchMap(ctx, filters())
	if err != nil {
		log.Fatalf("fetch map failed: %v", err)
	}
	if len(set) == 0 {
		log.Fatal("no listings with coordinates match these filters")
	}
	vp := fitViewport(set, *zoom, *width, *height)
	engine.OnViewportChanged(vp)

	if err := engine.ApplyFilters(ctx, filters()); err != nil {
		log.Fatalf("apply filters failed: %v", err)
	}

	for round := 1; len(engine.Materialized()) < len(set); round++ {
		fmt.Printf("-- idle %d --\n", round)
		engine.OnIdle(vp)
	}
	fmt.Printf("materialized %d of %d listings\n", len(engine.Materialized()), len(set))

	if *open != "" {
		if err := engine.OpenListing(*open); err != nil {
			log.Fatalf("open overlay failed: %v", err)
		}
	}
}

func buildSynchronizer(baseURL, tokenPath string) *favorites.Synchronizer {
	db := database.MustOpen(database.DefaultConfig())
	if err := database.Migrate(db); err != nil {
		log.Fatalf("db migrate failed: %v", err)
	}

	tokenFn := func() string {
		t, _ := readToken(tokenPath)
		return t
	}
	authed := func() bool { return tokenFn() != "" }

	return favorites.NewSynchronizer(
		favorites.NewRegistry(),
		favorites.NewClient(baseURL, tokenFn),
		favorites.NewLocalStore(db),
		authed,
	)
}

func fitViewport(set []models.Listing, zoom, width, height float64) models.Viewport {
	minLat, maxLat := set[0].Latitude, set[0].Latitude
	minLng, maxLng := set[0].Longitude, set[0].Longitude
	for _, l := range set[1:] {
		minLat = min(minLat, l.Latitude)
		maxLat = max(maxLat, l.Latitude)
		minLng = min(minLng, l.Longitude)
		maxLng = max(maxLng, l.Longitude)
	}
	// Pad so edge markers stay on-surface.
	padLat := (maxLat-minLat)*0.05 + 0.001
	padLng := (maxLng-minLng)*0.05 + 0.001
	return models.Viewport{
		Zoom: zoom,
		Bounds: models.Bounds{
			NorthEast: models.LatLng{Lat: maxLat + padLat, Lng: maxLng + padLng},
			SouthWest: models.LatLng{Lat: minLat - padLat, Lng: minLng - padLng},
		},
		Size: models.Size{Width: width, Height: height},
	}
}

type consoleRenderer struct{}

func (consoleRenderer) Render(a cluster.Assignment) {
	fmt.Printf("render: %d clusters, %d single markers\n", len(a.Clusters), len(a.Markers))
	for _, cl := range a.Clusters {
		fmt.Printf("  cluster x%d at (%.5f, %.5f)\n", cl.Count, cl.Centroid.Lat, cl.Centroid.Lng)
	}
}

func (consoleRenderer) Clear() {
	fmt.Println("render: cleared")
}

type consoleSurface struct{}

func (consoleSurface) Attach(l models.Listing, fav bool) {
	fmt.Printf("overlay: %s %s, %s/%s, R$ %.2f (favorito: %v)\n",
		l.Codigo, l.TipoImovel, l.Cidade, l.Estado, l.Valor, fav)
}

func (consoleSurface) Place(p overlay.Placement) {
	pos := "above"
	if p.Below {
		pos = "below"
	}
	fmt.Printf("overlay: placed %s anchor at (%.0f, %.0f)\n", pos, p.At.X, p.At.Y)
}

func (consoleSurface) SetFavorite(fav bool) {
	fmt.Printf("overlay: favorito -> %v\n", fav)
}

func (consoleSurface) Detach() {
	fmt.Println("overlay: closed")
}

func doJSON(ctx context.Context, client *http.Client, method, endpoint, token string, payload any, out any) error {
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = strings.NewReader(string(b))
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("%s %s failed: %s", method, endpoint, strings.TrimSpace(string(data)))
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(data, out)
}

func printJSON(v any) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		log.Fatalf("json: %v", err)
	}
	fmt.Println(string(b))
}

func defaultTokenPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./.imovelmap-token.json"
	}
	return filepath.Join(home, ".imovelmap", "token.json")
}

func saveToken(path, token string) error {
	if token == "" {
		return errors.New("empty token")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(tokenData{Token: token}, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

func readToken(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	var td tokenData
	if err := json.Unmarshal(data, &td); err != nil {
		return "", err
	}
	return strings.TrimSpace(td.Token), nil
}

func clearToken(path string) error {
	if err := os.Remove(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	return nil
}

func printUsage() {
	fmt.Println("imovelmap <command> [subcommand] [flags]")
	fmt.Println("commands:")
	fmt.Println("  auth login|register|logout")
	fmt.Println("  imoveis search|show|estados|cidades")
	fmt.Println("  fav list|toggle")
	fmt.Println("  mapa simulate")
}
