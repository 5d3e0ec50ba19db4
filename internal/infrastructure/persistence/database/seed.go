package database

import (
	"context"
	"fmt"

	"github.com/alchemorsel/kitchen/internal/domain/recipe"
	"github.com/alchemorsel/kitchen/internal/ports/outbound"
	"go.uber.org/zap"
)

// SeedCatalog populates an empty catalog with the sample recipes.
// A catalog that already has rows is left alone.
func SeedCatalog(ctx context.Context, repo outbound.RecipeRepository, log *zap.Logger) (int, error) {
	count, err := repo.Count(ctx)
	if err != nil {
		return 0, err
	}
	if count > 0 {
		return 0, nil // Already seeded
	}

	created := 0
	for _, attrs := range sampleRecipes {
		rec, err := recipe.NewRecipe(attrs)
		if err != nil {
			return created, fmt.Errorf("invalid sample recipe %q: %w", attrs.Name, err)
		}
		if _, err := repo.Create(ctx, rec); err != nil {
			return created, fmt.Errorf("failed to create sample recipe %q: %w", attrs.Name, err)
		}
		created++
	}

	log.Named("database").Info("Seeded recipe catalog", zap.Int("recipes", created))
	return created, nil
}

var sampleRecipes = []recipe.Attributes{
	{
		Name:           "Ugali",
		Country:        "Kenya",
		Origin:         "East Africa",
		CuisineType:    "Kenyan Traditional",
		Description:    "Kenya's national staple food made from white cornmeal flour",
		Image:          "https://images.unsplash.com/photo-1586511925558-a4c6376fe65f?w=400&h=300&fit=crop",
		PrepTime:       "15 mins",
		Difficulty:     "Easy",
		SpiceLevel:     "None",
		IsVegan:        true,
		IsVegetarian:   true,
		IsGlutenFree:   true,
		HealthBenefits: "High in carbohydrates for energy, gluten-free and rich in fiber",
		Ingredients: []string{
			"2 cups white cornmeal flour (maize flour)",
			"3 cups water",
			"1 tsp salt",
		},
		Steps: []string{
			"Boil water with salt in a heavy-bottomed pot",
			"Gradually add cornmeal flour while stirring continuously",
			"Stir vigorously to prevent lumps from forming",
			"Cook for 10-15 minutes until thick and pulling away from the pot",
			"Serve hot with stews and vegetables",
		},
	},
	{
		Name:           "Nyama Choma",
		Country:        "Kenya",
		Origin:         "East Africa",
		CuisineType:    "Kenyan BBQ",
		Description:    "Grilled goat or beef seasoned with salt and roasted over an open fire",
		Image:          "https://images.unsplash.com/photo-1544025162-d76694265947?w=400&h=300&fit=crop",
		PrepTime:       "45 mins",
		Difficulty:     "Medium",
		SpiceLevel:     "Mild",
		IsGlutenFree:   true,
		HealthBenefits: "High in protein and iron, rich in B vitamins",
		Ingredients: []string{
			"1kg beef or goat meat",
			"2 tsp salt",
			"1 tsp black pepper",
			"2 cloves garlic, minced",
			"1 tsp ginger, minced",
			"Lemon juice",
		},
		Steps: []string{
			"Cut meat into medium-sized pieces",
			"Season with salt, pepper, garlic and ginger and marinate for 30 minutes",
			"Grill over medium heat for 25-30 minutes, turning occasionally",
			"Brush with lemon juice while grilling and serve with ugali",
		},
	},
	{
		Name:           "Sukuma Wiki",
		Country:        "Kenya",
		Origin:         "East Africa",
		CuisineType:    "Kenyan Traditional",
		Description:    "Collard greens sauteed with onions and tomatoes",
		Image:          "https://images.unsplash.com/photo-1576045057995-568f588f82fb?w=400&h=300&fit=crop",
		PrepTime:       "20 mins",
		Difficulty:     "Easy",
		SpiceLevel:     "Mild",
		IsVegan:        true,
		IsVegetarian:   true,
		IsGlutenFree:   true,
		HealthBenefits: "Rich in vitamins A, C and K and a good source of calcium",
		Ingredients: []string{
			"1 bunch collard greens",
			"2 onions, chopped",
			"3 tomatoes, chopped",
			"3 cloves garlic, minced",
			"2 tbsp vegetable oil",
			"Salt to taste",
		},
		Steps: []string{
			"Wash and chop the greens into thin strips",
			"Saute onions in oil until golden, then add garlic",
			"Add tomatoes and cook until soft",
			"Stir in the greens, season and cook for 10 minutes",
		},
	},
	{
		Name:           "Chapati",
		Country:        "Kenya",
		Origin:         "Indian-Kenyan",
		CuisineType:    "Kenyan-Indian",
		Description:    "Soft, layered flatbread that's a staple in Kenyan households",
		Image:          "https://images.unsplash.com/photo-1601050690597-df0568f70950?w=400&h=300&fit=crop",
		PrepTime:       "45 mins",
		Difficulty:     "Medium",
		SpiceLevel:     "None",
		IsVegan:        true,
		IsVegetarian:   true,
		HealthBenefits: "Good source of carbohydrates and energy",
		Ingredients: []string{
			"3 cups all-purpose flour",
			"1 tsp salt",
			"2 tbsp vegetable oil",
			"1 cup warm water",
		},
		Steps: []string{
			"Mix flour and salt, then add oil and water gradually",
			"Knead into a smooth dough and rest for 30 minutes",
			"Divide, roll thin, brush with oil, coil and roll again",
			"Cook on a hot griddle until golden spots appear",
		},
	},
	{
		Name:           "Pilau",
		Country:        "Kenya",
		Origin:         "Swahili Coast",
		CuisineType:    "Kenyan-Arabic",
		Description:    "Fragrant spiced rice cooked with meat and aromatic spices",
		Image:          "https://images.unsplash.com/photo-1563379091339-03246963d51a?w=400&h=300&fit=crop",
		PrepTime:       "60 mins",
		Difficulty:     "Medium",
		SpiceLevel:     "Medium",
		IsGlutenFree:   true,
		HealthBenefits: "Protein from meat and complex carbohydrates from rice",
		Ingredients: []string{
			"2 cups basmati rice",
			"500g beef or chicken, cubed",
			"2 onions, sliced",
			"2 tsp pilau masala",
			"3 cups beef stock",
		},
		Steps: []string{
			"Wash and soak rice for 30 minutes",
			"Brown the meat, then cook onions until golden",
			"Add spices and rice and stir for 3 minutes",
			"Pour in hot stock, cover and simmer for 20 minutes",
		},
	},
	{
		Name:           "Jollof Rice",
		Country:        "Nigeria",
		Origin:         "West Africa",
		CuisineType:    "West African",
		Description:    "Rice simmered in a smoky tomato and pepper sauce",
		Image:          "https://images.unsplash.com/photo-1604329760661-e71dc83f8f26?w=400&h=300&fit=crop",
		PrepTime:       "50 mins",
		Difficulty:     "Medium",
		SpiceLevel:     "Hot",
		IsVegan:        true,
		IsVegetarian:   true,
		IsGlutenFree:   true,
		HealthBenefits: "Lycopene from tomatoes and vitamin C from peppers",
		Ingredients: []string{
			"3 cups long grain rice",
			"4 tomatoes",
			"2 red bell peppers",
			"1 scotch bonnet pepper",
			"2 onions",
			"3 cups vegetable stock",
		},
		Steps: []string{
			"Blend tomatoes, peppers and one onion into a smooth sauce",
			"Fry the remaining onion, add the sauce and reduce for 15 minutes",
			"Stir in rice and stock, cover and cook on low heat for 30 minutes",
		},
	},
}
