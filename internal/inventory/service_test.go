package inventory

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/ariefcatur/go-inventory-orders.git/internal/paging"
	"github.com/ariefcatur/go-inventory-orders.git/internal/storage"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memProducts struct {
	items     map[uuid.UUID]Product
	nextID    int64
	failWrite bool
}

func (m *memProducts) GetByUUID(_ context.Context, id uuid.UUID) (Product, error) {
	p, ok := m.items[id]
	if !ok {
		return Product{}, ErrProductNotFound
	}
	return p, nil
}

func (m *memProducts) ViewByUUID(ctx context.Context, id uuid.UUID) (ProductView, error) {
	p, err := m.GetByUUID(ctx, id)
	return ProductView{Product: p, CategoryName: "Food", SupplierName: "Toko"}, err
}

func (m *memProducts) List(context.Context, paging.Params) (paging.Page[ProductView], error) {
	var page paging.Page[ProductView]
	for _, p := range m.items {
		page.Items = append(page.Items, ProductView{Product: p})
	}
	return page, nil
}

func (m *memProducts) Create(_ context.Context, p *Product) error {
	if m.failWrite {
		return assert.AnError
	}
	for _, existing := range m.items {
		if existing.Name == p.Name {
			return ErrDuplicateProduct
		}
	}
	m.nextID++
	p.ID = m.nextID
	m.items[p.UUID] = *p
	return nil
}

func (m *memProducts) Update(_ context.Context, p *Product) error {
	if m.failWrite {
		return assert.AnError
	}
	p.StockVersion++
	m.items[p.UUID] = *p
	return nil
}

func (m *memProducts) Delete(_ context.Context, id uuid.UUID) error {
	delete(m.items, id)
	return nil
}

type notice struct {
	removed bool
	product Product
}

type memNotifier struct{ seen []notice }

func (n *memNotifier) StockChanged(_ context.Context, p Product) {
	n.seen = append(n.seen, notice{product: p})
}

func (n *memNotifier) ProductRemoved(_ context.Context, p Product) {
	n.seen = append(n.seen, notice{removed: true, product: p})
}

type refs struct{ categories, suppliers map[int64]bool }

func (r refs) CategoryExists(_ context.Context, id int64) (bool, error) { return r.categories[id], nil }
func (r refs) SupplierExists(_ context.Context, id int64) (bool, error) { return r.suppliers[id], nil }

func setup(t *testing.T) (*Service, *memProducts, afero.Fs) {
	t.Helper()
	fs := afero.NewMemMapFs()
	store := &memProducts{items: map[uuid.UUID]Product{}}
	log := logrus.New()
	log.SetOutput(io.Discard)
	svc := &Service{
		Products: store,
		Refs:     refs{categories: map[int64]bool{1: true}, suppliers: map[int64]bool{1: true}},
		Images:   &storage.Disk{Fs: fs},
		Events:   &memNotifier{},
		Log:      log,
	}
	return svc, store, fs
}

func input(name string) ProductInput {
	return ProductInput{CategoryID: 1, SupplierID: 1, Name: name, Price: 5000, Quantity: 20, Description: "Fresh"}
}

func img(name string) Image { return Image{Filename: name, Body: strings.NewReader("bytes")} }

func TestCreateProduct(t *testing.T) {
	svc, _, fs := setup(t)

	v, err := svc.Create(context.Background(), input("Roti Coklat Keju"), img("roti.png"))
	require.NoError(t, err)
	assert.Equal(t, "roti-coklat-keju", v.Slug)
	assert.Equal(t, 20, v.Quantity)
	assert.Equal(t, "Food", v.CategoryName)

	ok, _ := afero.Exists(fs, v.Image)
	assert.True(t, ok)
}

func TestCreateProductRejectsUnknownReferences(t *testing.T) {
	svc, _, _ := setup(t)

	in := input("Roti")
	in.CategoryID = 9
	_, err := svc.Create(context.Background(), in, img("roti.png"))
	assert.ErrorIs(t, err, ErrUnknownCategory)

	in = input("Roti")
	in.SupplierID = 9
	_, err = svc.Create(context.Background(), in, img("roti.png"))
	assert.ErrorIs(t, err, ErrUnknownSupplier)
}

func TestCreateProductRemovesImageOnFailure(t *testing.T) {
	svc, store, fs := setup(t)
	store.failWrite = true

	_, err := svc.Create(context.Background(), input("Roti"), img("roti.png"))
	require.Error(t, err)

	entries, _ := afero.ReadDir(fs, "images")
	assert.Empty(t, entries)
}

func TestUpdateProductReplacesImageAndSlug(t *testing.T) {
	svc, _, fs := setup(t)
	ctx := context.Background()
	v, err := svc.Create(ctx, input("Roti"), img("roti.png"))
	require.NoError(t, err)
	oldImage := v.Image

	newImg := img("roti2.webp")
	u, err := svc.Update(ctx, v.UUID, input("Roti Bakar"), &newImg)
	require.NoError(t, err)
	assert.Equal(t, "roti-bakar", u.Slug)
	assert.NotEqual(t, oldImage, u.Image)

	gone, _ := afero.Exists(fs, oldImage)
	assert.False(t, gone)

	kept, err := svc.Update(ctx, v.UUID, input("Roti Bakar"), nil)
	require.NoError(t, err)
	assert.Equal(t, u.Image, kept.Image)
	assert.Equal(t, u.Slug, kept.Slug)
}

func TestDeleteProduct(t *testing.T) {
	svc, _, fs := setup(t)
	ctx := context.Background()
	v, err := svc.Create(ctx, input("Roti"), img("roti.png"))
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, v.UUID))
	_, err = svc.Get(ctx, v.UUID)
	assert.ErrorIs(t, err, ErrProductNotFound)

	ok, _ := afero.Exists(fs, v.Image)
	assert.False(t, ok)

	assert.ErrorIs(t, svc.Delete(ctx, v.UUID), ErrProductNotFound)
}

func TestProductEditsNotifyStockChanges(t *testing.T) {
	svc, store, _ := setup(t)
	events := svc.Events.(*memNotifier)
	ctx := context.Background()

	v, err := svc.Create(ctx, input("Roti"), img("roti.png"))
	require.NoError(t, err)

	in := input("Roti Tawar")
	in.Quantity = 3
	_, err = svc.Update(ctx, v.UUID, in, nil)
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, v.UUID))

	require.Len(t, events.seen, 3)
	assert.False(t, events.seen[0].removed)
	assert.Equal(t, 20, events.seen[0].product.Quantity)
	assert.Equal(t, int64(0), events.seen[0].product.StockVersion)

	assert.Equal(t, 3, events.seen[1].product.Quantity)
	assert.Equal(t, "Roti Tawar", events.seen[1].product.Name)
	assert.Equal(t, int64(1), events.seen[1].product.StockVersion)

	assert.True(t, events.seen[2].removed)
	assert.Equal(t, v.ID, events.seen[2].product.ID)

	// failed writes stay silent
	store.failWrite = true
	_, err = svc.Create(ctx, input("Susu"), img("susu.png"))
	require.Error(t, err)
	assert.Len(t, events.seen, 3)
}
