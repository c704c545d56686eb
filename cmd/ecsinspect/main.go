// Command ecsinspect is a live graphical archetype-graph inspector: an
// Ebiten window with a Dear ImGui overlay table of every archetype the
// world has created, its component count, and its live entity count,
// refreshed every frame. It is grounded on ooftn's
// ecs/debugui/archetype_viewer.go table and its
// ecs/debugui/ebiten.ImguiBackend wrapper, adapted from ooftn's own
// reflection-driven Storage to this module's World.
package main

import (
	"fmt"

	ebitenbackend "github.com/AllenDang/cimgui-go/backend/ebiten-backend"
	"github.com/AllenDang/cimgui-go/imgui"
	"github.com/hajimehoshi/ebiten/v2"

	ecs "github.com/oasys-works/aecs"
)

const (
	windowTitle  = "ecsinspect"
	windowWidth  = 960
	windowHeight = 600
)

// game implements ebiten.Game, driving both the inspected world's fixed
// update loop and the ImGui frame around it.
type game struct {
	world   *ecs.World
	backend *ebitenbackend.EbitenBackend
}

func newGame(world *ecs.World) *game {
	backend := ebitenbackend.NewEbitenBackend()
	backend.CreateWindow(windowTitle, windowWidth, windowHeight)
	imgui.CurrentIO().SetIniFilename("")
	return &game{world: world, backend: backend}
}

func (g *game) Update() error {
	g.backend.BeginFrame()

	if err := g.world.RunUpdate(1.0 / 60.0); err != nil {
		return err
	}
	g.renderArchetypeTable()

	g.backend.EndFrame()
	return nil
}

func (g *game) Draw(screen *ebiten.Image) {
	g.backend.Draw(screen)
}

func (g *game) Layout(outsideWidth, outsideHeight int) (int, int) {
	g.backend.Layout(outsideWidth, outsideHeight)
	return outsideWidth, outsideHeight
}

func (g *game) renderArchetypeTable() {
	imgui.Begin("Archetype Viewer")
	defer imgui.End()

	stats := g.world.Stats()
	imgui.Text(fmt.Sprintf("entities: %d   archetypes: %d (%d live)   components: %d",
		stats.EntityCount, stats.ArchetypeCount, stats.LiveArchetypeCount, stats.ComponentCount))

	const tableFlags = imgui.TableFlagsBorders | imgui.TableFlagsRowBg | imgui.TableFlagsScrollY
	if !imgui.BeginTableV("archetypes", 3, tableFlags, imgui.NewVec2(0, 0), 0) {
		return
	}
	defer imgui.EndTable()

	imgui.TableSetupColumn("Archetype ID")
	imgui.TableSetupColumn("Components")
	imgui.TableSetupColumn("Entities")
	imgui.TableHeadersRow()

	for _, a := range g.world.Archetypes() {
		imgui.TableNextRow()

		imgui.TableNextColumn()
		imgui.Text(fmt.Sprintf("%d", a.ID()))

		imgui.TableNextColumn()
		imgui.Text(fmt.Sprintf("%d", a.Signature().Count()))

		imgui.TableNextColumn()
		imgui.Text(fmt.Sprintf("%d", a.RowCount()))
	}
}

func main() {
	world, err := ecs.NewWorld(ecs.WorldOptions{})
	if err != nil {
		panic(err)
	}
	if err := ebiten.RunGame(newGame(world)); err != nil {
		panic(err)
	}
}
