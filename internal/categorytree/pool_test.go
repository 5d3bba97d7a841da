package categorytree

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"golang.org/x/text/language"

	"storefront/pkg/domain"
)

func names(nodes []domain.CategoryNode) []string {
	out := make([]string, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, n.Name)
	}
	return out
}

func cat(id int64, name string, children ...domain.CategoryNode) domain.CategoryNode {
	return domain.CategoryNode{ID: id, Name: name, Slug: name, Subcategories: children}
}

func TestPoolAllStoresSortsWithoutDedup(t *testing.T) {
	byStore := domain.CategoriesByStore{
		"A": {cat(1, "Bread"), cat(2, "Apples")},
		"B": {cat(1, "Zest"), cat(2, "Apples")},
	}
	pooled := PoolAllStores(byStore, nil)
	if diff := cmp.Diff([]string{"Apples", "Apples", "Bread", "Zest"}, names(pooled)); diff != "" {
		t.Fatalf("pooled order (-want +got):\n%s", diff)
	}
	assert.Equal(t, "A", pooled[0].Store, "stable sort keeps store order for equal names")
	assert.Equal(t, "B", pooled[1].Store)
	assert.NotEqual(t, pooled[0].Key(), pooled[1].Key())
}

func TestPoolAllStoresUsesCzechCollation(t *testing.T) {
	byStore := domain.CategoriesByStore{
		"BILLA": {cat(1, "Chléb"), cat(2, "Hrách"), cat(3, "Dýně")},
	}
	assert.Equal(t, []string{"Dýně", "Hrách", "Chléb"}, names(PoolAllStores(byStore, nil)))
	assert.Equal(t, []string{"Chléb", "Dýně", "Hrách"}, names(PoolAllStores(byStore, NewCollator(language.English))))
}

func TestPoolStampsNestedStores(t *testing.T) {
	byStore := domain.CategoriesByStore{"FOODORA": {cat(1, "Ovoce", cat(2, "Jablka"))}}
	pooled := PoolAllStores(byStore, nil)
	assert.Equal(t, "FOODORA", pooled[0].Subcategories[0].Store)
	assert.Empty(t, byStore["FOODORA"][0].Store, "input must not be mutated")
}

func TestRoots(t *testing.T) {
	byStore := domain.CategoriesByStore{
		"BILLA":   {cat(1, "Zelenina"), cat(2, "Maso")},
		"FOODORA": {cat(3, "Akce")},
	}
	assert.Equal(t, []string{"Zelenina", "Maso"}, names(Roots(byStore, "BILLA", nil)), "single store keeps backend order")
	assert.Equal(t, []string{"Akce", "Maso", "Zelenina"}, names(Roots(byStore, "", nil)))
	assert.Nil(t, Roots(byStore, "TESCO", nil))
	assert.Empty(t, Roots(nil, "", nil))
}

func TestFlattenAndFind(t *testing.T) {
	roots := []domain.CategoryNode{
		cat(1, "ovoce", cat(2, "jablka"), cat(3, "hrusky", cat(4, "nashi"))),
		cat(5, "maso"),
	}
	flat := Flatten(roots)
	var got []string
	for _, f := range flat {
		got = append(got, f.Node.Slug)
	}
	assert.Equal(t, []string{"ovoce", "jablka", "hrusky", "nashi", "maso"}, got)
	assert.Equal(t, 2, flat[3].Depth)
	assert.Equal(t, []string{"ovoce", "hrusky"}, flat[3].Path)
	assert.Empty(t, flat[0].Path)

	n, ok := Find(roots, "nashi")
	assert.True(t, ok)
	assert.Equal(t, int64(4), n.ID)
	_, ok = Find(roots, "sýry")
	assert.False(t, ok)
}

func TestFindKeyDistinguishesStores(t *testing.T) {
	pooled := PoolAllStores(domain.CategoriesByStore{
		"A": {cat(1, "Pečivo", cat(7, "Rohlíky"))},
		"B": {cat(1, "Pečivo")},
	}, nil)
	n, ok := FindKey(pooled, "A:7")
	assert.True(t, ok)
	assert.Equal(t, "Rohlíky", n.Name)
	n, ok = FindKey(pooled, "B:1")
	assert.True(t, ok)
	assert.Equal(t, "B", n.Store)
	_, ok = FindKey(pooled, "B:7")
	assert.False(t, ok)
}
