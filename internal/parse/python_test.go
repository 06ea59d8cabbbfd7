package parse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const modelsPy = `from odoo import models, fields


class Partner(models.Model):
    _name = "res.partner"
    _inherit = ["mail.thread", "mail.activity.mixin"]

    name = fields.Char()


class PartnerExtension(models.Model):
    _inherit = "res.partner"

    nickname = fields.Char()


class Wizard(models.TransientModel):
    _name = 'sale.order.wizard'


class NotAModel:
    _name = "ignored.class"


def helper():
    pass
`

func TestParsePythonModels(t *testing.T) {
	p := NewParser()
	defer p.Close()

	f, err := p.ParseFile("models.py", "sale", []byte(modelsPy))
	require.NoError(t, err)
	require.Len(t, f.Models, 3)

	partner := f.Models[0]
	assert.Equal(t, "res.partner", partner.Name)
	assert.Equal(t, "sale", partner.Module)
	assert.Equal(t, uint32(4), partner.Location.Line)
	require.Len(t, partner.Inherits, 2)
	assert.Equal(t, "mail.thread", partner.Inherits[0].String())
	assert.Equal(t, "mail.activity.mixin", partner.Inherits[1].String())

	// _inherit without _name extends the model under the inherited name
	ext := f.Models[1]
	assert.Equal(t, "res.partner", ext.Name)
	assert.Empty(t, ext.Inherits)

	wizard := f.Models[2]
	assert.Equal(t, "sale.order.wizard", wizard.Name)
}

func TestParsePythonAbstractModel(t *testing.T) {
	const src = `class Mixin(models.AbstractModel):
    _name = "my.mixin"
`
	p := NewParser()
	defer p.Close()

	f, err := p.ParseFile("mixin.py", "base", []byte(src))
	require.NoError(t, err)
	require.Len(t, f.Models, 1)
	assert.Equal(t, "my.mixin", f.Models[0].Name)
}

func TestParsePythonNoModels(t *testing.T) {
	p := NewParser()
	defer p.Close()

	f, err := p.ParseFile("util.py", "base", []byte("x = 1\n"))
	require.NoError(t, err)
	assert.Empty(t, f.Models)
}

func TestParsePythonClassWithoutNameOrInherit(t *testing.T) {
	const src = `class Nameless(models.Model):
    pass
`
	p := NewParser()
	defer p.Close()

	f, err := p.ParseFile("nameless.py", "base", []byte(src))
	require.NoError(t, err)
	assert.Empty(t, f.Models)
}
