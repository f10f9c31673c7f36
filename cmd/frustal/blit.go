package main

import (
	"image"
	"unsafe"

	gl "github.com/go-gl/gl/v3.1/gles2"
	mgl "github.com/go-gl/mathgl/mgl32"
)

const (
	blitVertexShader = `
    precision highp float;
    attribute vec2 a_position;
    attribute vec2 a_texcoord;
    uniform mat4 u_transform;
    varying vec2 v_texcoord;
    void main(void) {
      gl_Position = u_transform * vec4(a_position, 0.0, 1.0);
      v_texcoord = a_texcoord;
    }` + "\x00"
	blitFragmentShader = `
    precision highp float;
    uniform sampler2D u_tex;
    varying vec2 v_texcoord;
    void main(void) {
      gl_FragColor = texture2D(u_tex, v_texcoord);
    }` + "\x00"
)

type blitVertex struct {
	position [2]float32
	texcoord [2]float32
}

// unit quad spanning (0,0)-(1,-1) in clip-space orientation
var quad = []blitVertex{
	{[2]float32{0, 0}, [2]float32{0, 0}},
	{[2]float32{0, -1}, [2]float32{0, 1}},
	{[2]float32{1, -1}, [2]float32{1, 1}},
	{[2]float32{1, -1}, [2]float32{1, 1}},
	{[2]float32{1, 0}, [2]float32{1, 0}},
	{[2]float32{0, 0}, [2]float32{0, 0}},
}

// Blitter draws an RGBA image as a textured quad.
type Blitter struct {
	tex         Texture
	size        image.Point
	program     Program
	a_position  int32
	a_texcoord  int32
	u_transform int32
	u_tex       int32
}

func CreateBlitter(filter int32) (*Blitter, error) {
	program, err := CreateProgram(blitVertexShader, blitFragmentShader)
	if err != nil {
		return nil, err
	}
	return &Blitter{
		tex:         CreateTexture(filter),
		program:     program,
		a_position:  program.GetAttribLocation("a_position"),
		a_texcoord:  program.GetAttribLocation("a_texcoord"),
		u_transform: program.GetUniformLocation("u_transform"),
		u_tex:       program.GetUniformLocation("u_tex"),
	}, nil
}

// Upload replaces the texture contents. img must be tightly packed, as
// returned by image.NewRGBA.
func (b *Blitter) Upload(img *image.RGBA) {
	size := img.Bounds().Size()
	b.tex.Bind()
	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 1)
	if size == b.size {
		gl.TexSubImage2D(gl.TEXTURE_2D, 0, 0, 0,
			int32(size.X), int32(size.Y),
			gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(img.Pix))
	} else {
		gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA,
			int32(size.X), int32(size.Y),
			0, gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(img.Pix))
		b.size = size
	}
	gl.BindTexture(gl.TEXTURE_2D, 0)
}

func (b *Blitter) Size() image.Point {
	return b.size
}

// Draw maps the texture onto rect of a framebuffer of size fb. With blend
// set the texture is composited as premultiplied alpha.
func (b *Blitter) Draw(rect image.Rectangle, fb image.Point, blend bool) {
	if b.size.X == 0 || b.size.Y == 0 || fb.X == 0 || fb.Y == 0 {
		return
	}
	b.program.Use()
	b.tex.Bind()
	var activeTexture int32
	gl.GetIntegerv(gl.ACTIVE_TEXTURE, &activeTexture)
	gl.Uniform1i(b.u_tex, activeTexture-gl.TEXTURE0)
	stride := int32(unsafe.Sizeof(blitVertex{}))
	gl.EnableVertexAttribArray(uint32(b.a_position))
	gl.VertexAttribPointer(uint32(b.a_position), 2, gl.FLOAT, false, stride,
		gl.Ptr(&quad[0].position[0]))
	gl.EnableVertexAttribArray(uint32(b.a_texcoord))
	gl.VertexAttribPointer(uint32(b.a_texcoord), 2, gl.FLOAT, false, stride,
		gl.Ptr(&quad[0].texcoord[0]))
	ux := 2.0 / float32(fb.X)
	uy := 2.0 / float32(fb.Y)
	mScale := mgl.Scale3D(ux*float32(rect.Dx()), uy*float32(rect.Dy()), 1)
	mTranslate := mgl.Translate3D(-1.0+ux*float32(rect.Min.X), 1.0-uy*float32(rect.Min.Y), 0)
	mTransform := mTranslate.Mul4(mScale)
	gl.UniformMatrix4fv(b.u_transform, 1, false, &mTransform[0])
	if blend {
		gl.Enable(gl.BLEND)
		gl.BlendEquation(gl.FUNC_ADD)
		gl.BlendFunc(gl.ONE, gl.ONE_MINUS_SRC_ALPHA)
	}
	gl.DrawArrays(gl.TRIANGLES, 0, int32(len(quad)))
	if blend {
		gl.Disable(gl.BLEND)
	}
	gl.DisableVertexAttribArray(uint32(b.a_position))
	gl.DisableVertexAttribArray(uint32(b.a_texcoord))
	gl.BindTexture(gl.TEXTURE_2D, 0)
}

func (b *Blitter) Close() error {
	b.program.Close()
	return b.tex.Close()
}
