// Package poster implementa o motor de composição: geometria dos 7
// painéis (duas fileiras, 4+3), rasterização do pôster (fundo, textura,
// imagens de passo, bordas e rótulos) e o empacotamento final em PDF de
// página única no tamanho físico de impressão, mais a miniatura.
//
// Tudo aqui é puro e stateless entre requisições: nenhuma estrutura
// compartilhada mutável, nenhuma leitura de relógio, nenhum I/O além
// dos bytes de entrada e saída.
package poster
